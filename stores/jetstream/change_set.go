package jetstream

import (
	"github.com/weegigs/wee-contracts-go/we"
)

type ChangeSet struct {
	Timestamp uint64            `json:"timestamp"`
	Entries   []we.Entry        `json:"entries"`
	Metadata  we.CommitMetadata `json:"metadata"`
}
