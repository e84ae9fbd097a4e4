package esdbs

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/EventStore/EventStore-Client-Go/esdb"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/weegigs/wee-contracts-go/we"
)

const ChangeSetEventType = "ledger:change-set"

type LedgerOption func(*ESDBLedger)

const defaultPageSize = 97

func PageSize(size int) LedgerOption {
	return func(l *ESDBLedger) {
		if size <= 0 {
			size = defaultPageSize
		}

		l.pageSize = size
	}
}

func NewLedger(client *esdb.Client, options ...LedgerOption) *ESDBLedger {
	ledger := &ESDBLedger{
		db:       client,
		pageSize: defaultPageSize,
	}

	for _, option := range options {
		option(ledger)
	}

	return ledger
}

// ESDBLedger keeps one stream per contract instance. Each commit appends a single change set event.
type ESDBLedger struct {
	db       *esdb.Client
	pageSize int
}

type changeSet struct {
	Entries []we.Entry `json:"entries"`
}

// the first event in a stream is number 0, which would collide with the initial revision
func revisionOf(eventNumber uint64) we.Revision {
	return we.Revision(fmt.Sprintf("%026x", eventNumber+1))
}

func expectedRevision(revision we.Revision) (esdb.ExpectedRevision, error) {
	switch revision {
	case "":
		return esdb.Any{}, nil
	case we.InitialRevision:
		return esdb.NoStream{}, nil
	}

	r, err := strconv.ParseUint(revision.String(), 16, 64)
	if err != nil || r == 0 {
		return nil, errors.Errorf("invalid expected revision %s", revision)
	}

	return esdb.Revision(r - 1), nil
}

func (l *ESDBLedger) Commit(ctx context.Context, id we.ContractId, options we.CommitOptions, entries ...we.Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", we.ErrEmptyCommit
	}

	metadata := map[string]string{}
	if options.Metadata.CorrelationId != "" {
		metadata["$correlationId"] = options.Metadata.CorrelationId.String()
	}
	if options.Metadata.EntryPoint != "" {
		metadata["entryPoint"] = options.Metadata.EntryPoint.String()
	}

	var md []byte
	if len(metadata) > 0 {
		var err error
		md, err = json.Marshal(metadata)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal metadata")
		}
	}

	data, err := json.Marshal(changeSet{Entries: entries})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal change set")
	}

	revision, err := expectedRevision(options.ExpectedRevision)
	if err != nil {
		return "", err
	}

	result, err := l.db.AppendToStream(
		ctx,
		id.Encode().String(),
		esdb.AppendToStreamOptions{ExpectedRevision: revision},
		esdb.EventData{
			ContentType: esdb.JsonContentType,
			EventType:   ChangeSetEventType,
			Data:        data,
			Metadata:    md,
		},
	)
	if err != nil {
		if errors.Is(err, esdb.ErrWrongExpectedStreamRevision) {
			return "", we.RevisionConflict
		}

		return "", errors.Wrap(err, "failed to append to stream")
	}

	return revisionOf(result.NextExpectedVersion), nil
}

func (l *ESDBLedger) Load(ctx context.Context, id we.ContractId) (we.Instance, error) {
	instance := we.NewInstance(id)

	var position esdb.StreamPosition = esdb.Start{}
	for {
		count, last, err := l.read(ctx, &instance, position)
		if err != nil {
			return we.Instance{}, err
		}

		if count < l.pageSize {
			break
		}

		position = last
	}

	return instance, nil
}

func (l *ESDBLedger) read(ctx context.Context, instance *we.Instance, from esdb.StreamPosition) (int, esdb.StreamPosition, error) {
	if revision, ok := from.(esdb.StreamRevision); ok {
		from = esdb.StreamRevision{Value: revision.Value + 1}
	}

	stream, err := l.db.ReadStream(
		ctx, instance.Id.Encode().String(), esdb.ReadStreamOptions{
			From: from,
		}, uint64(l.pageSize),
	)
	if err != nil {
		if errors.Is(err, esdb.ErrStreamNotFound) || errors.Is(err, io.EOF) {
			return 0, esdb.End{}, nil
		}

		return 0, esdb.End{}, errors.Wrap(err, "failed to read stream")
	}
	defer stream.Close()

	var count int
	var last esdb.StreamPosition = esdb.End{}
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}

		if errors.Is(err, esdb.ErrStreamNotFound) {
			return 0, esdb.End{}, nil
		}

		if err != nil {
			return 0, esdb.End{}, errors.Wrap(err, "failed to read change set")
		}

		recorded := event.OriginalEvent()
		count++
		last = esdb.Revision(recorded.EventNumber)
		instance.Revision = revisionOf(recorded.EventNumber)

		if recorded.EventType != ChangeSetEventType {
			continue
		}

		var changes changeSet
		if err := json.Unmarshal(recorded.Data, &changes); err != nil {
			return 0, esdb.End{}, errors.Wrapf(err, "failed to unmarshal change set %d", recorded.EventNumber)
		}

		instance.Apply(changes.Entries...)
	}

	return count, last, nil
}
