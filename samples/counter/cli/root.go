package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/stores/sqlite"
	"github.com/weegigs/wee-contracts-go/we"
)

var Version = "dev"

type cli struct {
	configDir string
	key       string
	json      bool

	config config
	ledger *sqlite.Ledger
	host   *we.ContractHost
	out    io.Writer
}

func (c *cli) id() we.ContractId {
	key := c.key
	if key == "" {
		key = c.config.ContractKey
	}

	return counter.InstanceId(key)
}

func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c.configDir)
	if err != nil {
		return err
	}
	c.config = cfg

	clock, err := counter.LedgerClock()
	if err != nil {
		return err
	}

	ledger, err := sqlite.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	c.ledger = ledger

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()

	c.host = we.NewContractHost(ledger, counter.Descriptor(),
		we.WithSequencer(clock),
		we.WithTTLPolicy(cfg.TTL),
		we.WithLogger(logger),
	)

	return nil
}

func (c *cli) close(_ *cobra.Command, _ []string) error {
	if c.ledger == nil {
		return nil
	}

	return c.ledger.Close()
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:                "counter",
		Short:              "Counter runs the counter contract against a local ledger",
		Version:            Version,
		SilenceUsage:       true,
		PersistentPreRunE:  c.open,
		PersistentPostRunE: c.close,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.configDir, "config-dir", defaultConfigDir, "configuration directory")
	root.PersistentFlags().StringVar(&c.key, "key", "", "counter instance key (default: contract_key from config)")
	root.PersistentFlags().BoolVar(&c.json, "json", false, "output as JSON")

	root.AddCommand(
		c.invokeCommand(counter.Increment, "Add one to the counter"),
		c.invokeCommand(counter.Decrement, "Subtract one from the counter, stopping at zero"),
		c.invokeCommand(counter.Reset, "Set the counter to zero"),
		c.getCommand(),
		c.historyCommand(),
		versionCommand(),
	)

	return root
}

func execute() int {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		return 1
	}

	return 0
}
