package ds

import (
	"github.com/weegigs/wee-contracts-go/we"
)

type entryRecord struct {
	PartitionKey string            `dynamodbav:"pk"`
	SortKey      string            `dynamodbav:"sk"`
	Key          we.Symbol         `dynamodbav:"key"`
	Encoding     string            `dynamodbav:"encoding"`
	Value        []byte            `dynamodbav:"value"`
	LiveUntil    we.LedgerSequence `dynamodbav:"live_until"`
	Revision     we.Revision       `dynamodbav:"revision"`
	ExpiresAt    int64             `dynamodbav:"expires_at,omitempty"`
}

type latestRecord struct {
	PartitionKey  string       `dynamodbav:"pk"`
	SortKey       string       `dynamodbav:"sk"`
	Revision      we.Revision  `dynamodbav:"revision"`
	Timestamp     we.Timestamp `dynamodbav:"timestamp"`
	EntryPoint    string       `dynamodbav:"entry_point,omitempty"`
	CorrelationId string       `dynamodbav:"correlation_id,omitempty"`
}

func partitionKey(id we.ContractId) string {
	return id.Encode().String()
}

func sortKey(key we.Symbol) string {
	return entryPrefix + key.String()
}

func newEntryRecord(id we.ContractId, entry we.Entry, revision we.Revision) entryRecord {
	return entryRecord{
		PartitionKey: partitionKey(id),
		SortKey:      sortKey(entry.Key),
		Key:          entry.Key,
		Encoding:     entry.Value.Encoding,
		Value:        entry.Value.Data,
		LiveUntil:    entry.LiveUntil,
		Revision:     revision,
	}
}

func (r entryRecord) Entry() we.Entry {
	return we.Entry{
		Key:       r.Key,
		Value:     we.Data{Encoding: r.Encoding, Data: r.Value},
		LiveUntil: r.LiveUntil,
	}
}
