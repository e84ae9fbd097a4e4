package we

import (
	"github.com/rs/zerolog"
)

// Env is the execution context handed to an entry point for a single call.
type Env struct {
	contract   ContractId
	entryPoint EntryPointName
	ledger     LedgerSequence
	storage    *storageView
	log        zerolog.Logger
}

func (e *Env) Contract() ContractId {
	return e.contract
}

func (e *Env) EntryPoint() EntryPointName {
	return e.entryPoint
}

func (e *Env) Ledger() LedgerSequence {
	return e.ledger
}

func (e *Env) Storage() InstanceStorage {
	return e.storage
}

func (e *Env) Log() *zerolog.Logger {
	return &e.log
}
