package we

import (
	"context"
)

type Ledger interface {
	Load(ctx context.Context, id ContractId) (Instance, error)
	Commit(ctx context.Context, id ContractId, options CommitOptions, entries ...Entry) (Revision, error)
}

type CorrelationID string

func (id CorrelationID) String() string {
	return string(id)
}

type CommitMetadata struct {
	CorrelationId CorrelationID  `json:"correlationId,omitempty"`
	EntryPoint    EntryPointName `json:"entryPoint,omitempty"`
}

// CommitOptions.ExpectedRevision is unconditional when empty. InitialRevision requires that nothing has been committed yet.
type CommitOptions struct {
	Metadata         CommitMetadata
	ExpectedRevision Revision
}

type CommitOption func(*CommitOptions)

func Options(options ...CommitOption) CommitOptions {
	opts := CommitOptions{}
	for _, option := range options {
		option(&opts)
	}

	return opts
}

func WithExpectedRevision(revision Revision) CommitOption {
	return func(options *CommitOptions) {
		options.ExpectedRevision = revision
	}
}

func WithCorrelationId(id CorrelationID) CommitOption {
	return func(options *CommitOptions) {
		options.Metadata.CorrelationId = id
	}
}

func WithEntryPoint(name EntryPointName) CommitOption {
	return func(options *CommitOptions) {
		options.Metadata.EntryPoint = name
	}
}

type correlationKey struct{}

func ContextWithCorrelationId(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationIdFrom(ctx context.Context) (CorrelationID, bool) {
	id, ok := ctx.Value(correlationKey{}).(CorrelationID)
	return id, ok && id != ""
}
