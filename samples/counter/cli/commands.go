package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/we"
)

type output struct {
	Contract  string            `json:"contract"`
	Value     uint32            `json:"value"`
	Revision  we.Revision       `json:"revision"`
	Ledger    we.LedgerSequence `json:"ledger"`
	Committed bool              `json:"committed"`
}

func (c *cli) print(result we.Result) error {
	value, err := we.DecodeResult[uint32](result)
	if err != nil {
		return err
	}

	if !c.json {
		_, err := fmt.Fprintln(c.out, value)
		return err
	}

	return json.NewEncoder(c.out).Encode(output{
		Contract:  result.Contract.String(),
		Value:     value,
		Revision:  result.Revision,
		Ledger:    result.Ledger,
		Committed: result.Committed,
	})
}

func (c *cli) invokeCommand(entryPoint we.EntryPointName, short string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   entryPoint.String(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result we.Result
			var err error
			if dryRun {
				result, err = c.host.Simulate(cmd.Context(), c.id(), entryPoint)
			} else {
				result, err = c.host.Invoke(cmd.Context(), c.id(), entryPoint)
			}
			if err != nil {
				return err
			}

			return c.print(result)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate without committing")

	return cmd
}

func (c *cli) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get",
		Aliases: []string{"get_current_value"},
		Short:   "Print the current counter value",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.host.Simulate(cmd.Context(), c.id(), counter.GetCurrentValue)
			if err != nil {
				return err
			}

			return c.print(result)
		},
	}
}

func (c *cli) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List committed change sets for the counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := c.ledger.History(cmd.Context(), c.id())
			if err != nil {
				return err
			}

			if c.json {
				return json.NewEncoder(c.out).Encode(history)
			}

			for _, changeSet := range history {
				if _, err := fmt.Fprintf(c.out, "%s %s %s\n", changeSet.Revision, changeSet.CommittedAt, changeSet.EntryPoint); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the counter version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "counter", Version)
			return err
		},
	}
}
