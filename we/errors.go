package we

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	RevisionConflict = errors.New("revision-conflict")
	ErrReadOnly      = errors.New("storage is read only")
	ErrEntryNotFound = errors.New("storage entry not found")
	ErrEmptyCommit   = errors.New("attempted to commit an empty change set")
	ErrNotHosted     = errors.New("contract type is not hosted")
)

type InvalidContractIdError struct {
	Id     ContractId
	Reason string
}

func (e *InvalidContractIdError) Error() string {
	return fmt.Sprintf("invalid contract id %q: %s", e.Id.String(), e.Reason)
}

func InvalidContractId(id ContractId, reason string) error {
	return &InvalidContractIdError{Id: id, Reason: reason}
}

type InvalidSymbolError struct {
	Symbol string
	Reason string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %q: %s", e.Symbol, e.Reason)
}

func InvalidSymbol(symbol string, reason string) error {
	return &InvalidSymbolError{
		Symbol: symbol,
		Reason: reason,
	}
}

type InvalidTTLError struct {
	Threshold uint32
	ExtendTo  uint32
	Maximum   uint32
}

func (e *InvalidTTLError) Error() string {
	if e.Threshold > e.ExtendTo {
		return fmt.Sprintf("ttl threshold %d is greater than extension %d", e.Threshold, e.ExtendTo)
	}

	return fmt.Sprintf("ttl extension %d is greater than the maximum of %d", e.ExtendTo, e.Maximum)
}

// ContractError is raised by contract code. The call is aborted and nothing is committed.
type ContractError struct {
	Code    uint32
	Message string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract error #%d: %s", e.Code, e.Message)
}

func NewContractError(code uint32, message string) *ContractError {
	return &ContractError{
		Code:    code,
		Message: message,
	}
}
