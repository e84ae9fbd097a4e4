package we

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "contracts-service"

const DefaultCommitAttempts uint = 5

type ContractService interface {
	Invoke(ctx context.Context, id ContractId, entryPoint EntryPointName) (Result, error)
	Simulate(ctx context.Context, id ContractId, entryPoint EntryPointName) (Result, error)
	EntryPoints() []EntryPointInfo
	Describe(id ContractId) ([]EntryPointInfo, error)
}

type Result struct {
	Contract   ContractId     `json:"contract"`
	EntryPoint EntryPointName `json:"entry_point"`
	Value      Data           `json:"value"`
	Revision   Revision       `json:"revision"`
	Ledger     LedgerSequence `json:"ledger"`
	Committed  bool           `json:"committed"`
}

func DecodeResult[T any](result Result) (T, error) {
	var value T
	if err := UnmarshalFromData(result.Value, &value); err != nil {
		return value, errors.Wrapf(err, "failed to decode result of %s", result.EntryPoint)
	}

	return value, nil
}

type ServiceOption func(*ContractHost)

func WithSequencer(sequencer Sequencer) ServiceOption {
	return func(h *ContractHost) {
		h.sequencer = sequencer
	}
}

func WithTTLPolicy(policy TTLPolicy) ServiceOption {
	return func(h *ContractHost) {
		h.policy = policy
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(h *ContractHost) {
		h.log = logger
	}
}

func WithCommitAttempts(attempts uint) ServiceOption {
	return func(h *ContractHost) {
		h.attempts = attempts
	}
}

// ContractHost runs the entry points of a single contract against a Ledger.
type ContractHost struct {
	contract   string
	ledger     Ledger
	dispatcher *RoutedDispatcher
	sequencer  Sequencer
	policy     TTLPolicy
	log        zerolog.Logger
	attempts   uint
}

func NewContractHost(ledger Ledger, descriptor ContractDescriptor, options ...ServiceOption) *ContractHost {
	host := &ContractHost{
		contract:   descriptor.Name,
		ledger:     ledger,
		dispatcher: NewRoutedDispatcher(descriptor),
		sequencer:  NewLedgerClock(time.Unix(0, 0)),
		policy:     DefaultTTLPolicy(),
		log:        zerolog.Nop(),
		attempts:   DefaultCommitAttempts,
	}

	for _, option := range options {
		option(host)
	}

	if host.attempts == 0 {
		host.attempts = 1
	}

	host.log = host.log.With().Str("contract_type", descriptor.Name).Logger()

	return host
}

func (h *ContractHost) EntryPoints() []EntryPointInfo {
	return h.dispatcher.Describe()
}

// Describe lists the entry points of id, failing when id is not an instance of the hosted contract.
func (h *ContractHost) Describe(id ContractId) ([]EntryPointInfo, error) {
	if err := h.hosts(id); err != nil {
		return nil, err
	}

	return h.dispatcher.Describe(), nil
}

func (h *ContractHost) Invoke(ctx context.Context, id ContractId, name EntryPointName) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "invoke entry point")
	defer span.End()
	span.SetAttributes(attribute.String("entry_point", name.String()))

	if _, err := h.resolve(id, name); err != nil {
		return Result{}, err
	}

	var result Result
	err := retry.Do(
		func() error {
			var err error
			result, err = h.execute(ctx, id, name, true)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(h.attempts),
		retry.Delay(2*time.Millisecond),
		retry.MaxJitter(10*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, RevisionConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			h.log.Debug().Uint("attempt", n+1).Str("contract", id.String()).Str("entry_point", name.String()).Msg("revision conflict, retrying")
		}),
	)

	if err != nil {
		return Result{}, err
	}

	return result, nil
}

func (h *ContractHost) Simulate(ctx context.Context, id ContractId, name EntryPointName) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "simulate entry point")
	defer span.End()
	span.SetAttributes(attribute.String("entry_point", name.String()))

	if _, err := h.resolve(id, name); err != nil {
		return Result{}, err
	}

	return h.execute(ctx, id, name, false)
}

func (h *ContractHost) hosts(id ContractId) error {
	if err := id.Validate(); err != nil {
		return err
	}

	if id.Type != h.contract {
		return errors.Wrapf(ErrNotHosted, "%s is hosted, not %s", h.contract, id.Type)
	}

	return nil
}

// resolve checks that id names an instance of the hosted contract before looking up the entry point.
func (h *ContractHost) resolve(id ContractId, name EntryPointName) (EntryPoint, error) {
	if err := h.hosts(id); err != nil {
		return nil, err
	}

	return h.dispatcher.Lookup(name)
}

func (h *ContractHost) execute(ctx context.Context, id ContractId, name EntryPointName, commit bool) (Result, error) {
	entryPoint, err := h.resolve(id, name)
	if err != nil {
		return Result{}, err
	}

	instance, err := h.ledger.Load(ctx, id)
	if err != nil {
		return Result{}, errors.Wrapf(err, "failed to load %s", id)
	}

	current := h.sequencer.Current()
	storage := newStorageView(instance, current, h.policy, entryPoint.Access())
	env := &Env{
		contract:   id,
		entryPoint: name,
		ledger:     current,
		storage:    storage,
		log: h.log.With().
			Str("contract", id.String()).
			Str("entry_point", name.String()).
			Uint32("ledger", uint32(current)).
			Logger(),
	}

	value, err := h.dispatcher.Dispatch(ctx, env)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Contract:   id,
		EntryPoint: name,
		Value:      value,
		Revision:   instance.Revision,
		Ledger:     current,
	}

	if !commit || !storage.dirty() {
		return result, nil
	}

	options := []CommitOption{WithExpectedRevision(instance.Revision), WithEntryPoint(name)}
	if correlationId, ok := CorrelationIdFrom(ctx); ok {
		options = append(options, WithCorrelationId(correlationId))
	}

	revision, err := h.ledger.Commit(ctx, id, Options(options...), storage.changes()...)
	if err != nil {
		return Result{}, err
	}

	result.Revision = revision
	result.Committed = true

	return result, nil
}
