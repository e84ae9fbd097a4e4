package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/weegigs/wee-contracts-go/we"
)

//go:embed schema.sql
var schemaSQL string

const DatabaseFile = "ledger.db"

// Ledger persists instances in a single sqlite file. Commits are serialised through one connection.
type Ledger struct {
	db       *sql.DB
	revision *we.RevisionGenerator
	now      func() time.Time
}

func Open(dataDir string) (*Ledger, error) {
	if dataDir == "" {
		dataDir = "."
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", dataDir)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DatabaseFile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ledger database")
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply ledger schema")
	}

	return &Ledger{db: db, revision: we.NewRevisionGenerator(), now: time.Now}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) Load(ctx context.Context, id we.ContractId) (we.Instance, error) {
	instance := we.NewInstance(id)
	contract := id.Encode().String()

	err := l.db.QueryRowContext(ctx, `SELECT revision FROM instances WHERE contract = ?`, contract).Scan(&instance.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return instance, nil
	}
	if err != nil {
		return we.Instance{}, errors.Wrap(err, "failed to read instance")
	}

	rows, err := l.db.QueryContext(ctx, `SELECT key, encoding, value, live_until FROM entries WHERE contract = ?`, contract)
	if err != nil {
		return we.Instance{}, errors.Wrap(err, "failed to read entries")
	}
	defer rows.Close()

	for rows.Next() {
		var entry we.Entry
		if err := rows.Scan(&entry.Key, &entry.Value.Encoding, &entry.Value.Data, &entry.LiveUntil); err != nil {
			return we.Instance{}, errors.Wrap(err, "failed to scan entry")
		}
		instance.Entries[entry.Key] = entry
	}

	return instance, rows.Err()
}

func (l *Ledger) Commit(ctx context.Context, id we.ContractId, options we.CommitOptions, entries ...we.Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", we.ErrEmptyCommit
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to begin commit")
	}
	defer tx.Rollback()

	contract := id.Encode().String()

	current := we.InitialRevision
	err = tx.QueryRowContext(ctx, `SELECT revision FROM instances WHERE contract = ?`, contract).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(err, "failed to read latest revision")
	}

	if options.ExpectedRevision != "" && options.ExpectedRevision != current {
		return "", we.RevisionConflict
	}

	now := l.now()
	revision := l.revision.NewRevision(now)
	timestamp := now.UTC().Format(we.RFC3339Milli)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO instances (contract, revision, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (contract) DO UPDATE SET revision = excluded.revision, updated_at = excluded.updated_at`,
		contract, revision.String(), timestamp,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to update instance")
	}

	keys := make([]we.Symbol, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (contract, key, encoding, value, live_until) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (contract, key) DO UPDATE SET encoding = excluded.encoding, value = excluded.value, live_until = excluded.live_until`,
			contract, entry.Key.String(), entry.Value.Encoding, entry.Value.Data, uint32(entry.LiveUntil),
		)
		if err != nil {
			return "", errors.Wrapf(err, "failed to write entry %s", entry.Key)
		}
	}

	encodedKeys, err := json.Marshal(keys)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO change_sets (contract, revision, entry_point, correlation_id, keys, committed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		contract, revision.String(), options.Metadata.EntryPoint.String(), options.Metadata.CorrelationId.String(), string(encodedKeys), timestamp,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to record change set")
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "failed to commit change set")
	}

	return revision, nil
}

type ChangeSet struct {
	Revision      we.Revision
	EntryPoint    we.EntryPointName
	CorrelationId we.CorrelationID
	Keys          []we.Symbol
	CommittedAt   we.Timestamp
}

// History lists the change sets committed for id, oldest first.
func (l *Ledger) History(ctx context.Context, id we.ContractId) ([]ChangeSet, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT revision, entry_point, correlation_id, keys, committed_at FROM change_sets WHERE contract = ? ORDER BY rowid`,
		id.Encode().String(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read change sets")
	}
	defer rows.Close()

	var history []ChangeSet
	for rows.Next() {
		var changeSet ChangeSet
		var keys string
		if err := rows.Scan(&changeSet.Revision, &changeSet.EntryPoint, &changeSet.CorrelationId, &keys, &changeSet.CommittedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan change set")
		}

		if err := json.Unmarshal([]byte(keys), &changeSet.Keys); err != nil {
			return nil, errors.Wrap(err, "failed to decode change set keys")
		}

		history = append(history, changeSet)
	}

	return history, rows.Err()
}
