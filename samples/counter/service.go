package counter

import (
	"os"
	"time"

	"github.com/google/wire"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/weegigs/wee-contracts-go/we"
)

const GenesisVariable = "LEDGER_GENESIS"

var DefaultGenesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var Services = wire.NewSet(
	LedgerClock,
	Logger,
	NewService,
	wire.Bind(new(we.ContractService), new(*we.ContractHost)),
)

// LedgerClock reads the genesis time from LEDGER_GENESIS (RFC 3339).
func LedgerClock() (*we.LedgerClock, error) {
	genesis := DefaultGenesis
	if value := os.Getenv(GenesisVariable); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", GenesisVariable)
		}
		genesis = parsed
	}

	return we.NewLedgerClock(genesis), nil
}

func Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func NewService(ledger we.Ledger, clock *we.LedgerClock, logger zerolog.Logger) *we.ContractHost {
	return we.NewContractHost(ledger, Descriptor(), we.WithSequencer(clock), we.WithLogger(logger))
}
