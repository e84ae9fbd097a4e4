package jetstream

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/weegigs/wee-contracts-go/internal"
	"github.com/weegigs/wee-contracts-go/we"
)

const prefix = "change-set."

func NewLedger(name string, connection *nats.Conn, options ...LedgerOption) (*Ledger, error) {
	stream, err := connection.JetStream()
	if err != nil {
		return nil, err
	}

	_, err = stream.AddStream(&nats.StreamConfig{
		Name:        name,
		Description: "change set stream for " + name,
		Subjects:    []string{prefix + ">"},
	})
	if err != nil {
		return nil, err
	}

	ledger := &Ledger{
		name:    name,
		manager: stream,
		stream:  stream,
	}

	for _, option := range options {
		option(ledger)
	}

	if ledger.clock == nil {
		ledger.clock = time.Now
	}

	if ledger.codec == nil {
		ledger.codec = jsonCodec{}
	}

	return ledger, nil
}

// Ledger publishes one change set message per commit on the subject of the contract instance.
type Ledger struct {
	name    string
	manager nats.JetStreamManager
	stream  nats.JetStream
	clock   Clock
	codec   Codec
}

func subject(id we.ContractId) string {
	return prefix + id.Encode().String()
}

func (l *Ledger) Commit(ctx context.Context, id we.ContractId, options we.CommitOptions, entries ...we.Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", we.ErrEmptyCommit
	}

	precondition, err := expectation(options.ExpectedRevision)
	if err != nil {
		return "", err
	}

	changes := ChangeSet{Timestamp: ulid.Timestamp(l.clock()), Entries: entries, Metadata: options.Metadata}
	payload, err := l.codec.Encode(changes)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode change set")
	}

	ack, err := l.stream.Publish(subject(id), payload, append(precondition, nats.Context(ctx))...)
	if isWrongLastSequence(err) {
		return "", we.RevisionConflict
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to publish change set for %s", id)
	}

	return internal.EncodeRevision(changes.Timestamp, ack.Sequence, 0)
}

// expectation maps an expected revision onto the per subject sequence JetStream checks on publish.
func expectation(expected we.Revision) ([]nats.PubOpt, error) {
	switch expected {
	case "":
		return nil, nil
	case we.InitialRevision:
		return []nats.PubOpt{nats.ExpectLastSequencePerSubject(0)}, nil
	}

	sequence, err := internal.DecodeSequenceNumber(expected)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid expected revision %s", expected)
	}

	return []nats.PubOpt{nats.ExpectLastSequencePerSubject(sequence)}, nil
}

func isWrongLastSequence(err error) bool {
	var api *nats.APIError
	return errors.As(err, &api) && api.ErrorCode == nats.JSErrCodeStreamWrongLastSequence
}

func (l *Ledger) Load(ctx context.Context, id we.ContractId) (we.Instance, error) {
	instance := we.NewInstance(id)

	last, found, err := l.lastSequence(ctx, subject(id))
	if err != nil || !found {
		return instance, err
	}

	if err := l.replay(ctx, &instance, last); err != nil {
		return we.Instance{}, errors.Wrapf(err, "failed to replay %s", id)
	}

	return instance, nil
}

func (l *Ledger) lastSequence(ctx context.Context, subject string) (uint64, bool, error) {
	msg, err := l.manager.GetLastMsg(l.name, subject, nats.Context(ctx))
	switch {
	case errors.Is(err, nats.ErrMsgNotFound):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	default:
		return msg.Sequence, true, nil
	}
}

// replay folds every change set on the instance subject up to and including last.
func (l *Ledger) replay(ctx context.Context, instance *we.Instance, last uint64) error {
	subscription, err := l.stream.SubscribeSync(subject(instance.Id), nats.DeliverAll(), nats.OrderedConsumer())
	if err != nil {
		return err
	}
	defer func() {
		if err := subscription.Unsubscribe(); err != nil {
			log.Err(err).Str("contract", instance.Id.String()).Msg("failed to unsubscribe ordered consumer")
		}
	}()

	for {
		msg, err := subscription.NextMsgWithContext(ctx)
		if err != nil {
			return err
		}

		sequence, err := l.apply(instance, msg)
		if err != nil {
			return err
		}

		if sequence >= last {
			return nil
		}
	}
}

func (l *Ledger) apply(instance *we.Instance, msg *nats.Msg) (uint64, error) {
	metadata, err := msg.Metadata()
	if err != nil {
		return 0, err
	}

	var changes ChangeSet
	if err := l.codec.Decode(msg.Data, &changes); err != nil {
		return 0, errors.Wrap(err, "failed to decode change set")
	}

	revision, err := internal.EncodeRevision(changes.Timestamp, metadata.Sequence.Stream, 0)
	if err != nil {
		return 0, err
	}

	instance.Apply(changes.Entries...)
	instance.Revision = revision

	return metadata.Sequence.Stream, nil
}
