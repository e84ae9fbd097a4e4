package we

import (
	"context"
)

type EntryPointName string

func (n EntryPointName) String() string {
	return string(n)
}

type Access int

const (
	AccessReadWrite Access = iota
	AccessReadOnly
)

func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	default:
		return "read-write"
	}
}

type EntryPoint interface {
	Access() Access
	Invoke(ctx context.Context, env *Env) (Data, error)
}

type EntryPointInfo struct {
	Name   EntryPointName `json:"name"`
	Access string         `json:"access"`
}

type EntryPointFunction[R any] func(ctx context.Context, env *Env) (R, error)

func (f EntryPointFunction[R]) Access() Access {
	return AccessReadWrite
}

func (f EntryPointFunction[R]) Invoke(ctx context.Context, env *Env) (Data, error) {
	result, err := f(ctx, env)
	if err != nil {
		return Data{}, err
	}

	return MarshalToData(result)
}

type readOnly struct {
	EntryPoint
}

func (readOnly) Access() Access {
	return AccessReadOnly
}

// ReadOnly marks an entry point whose storage writes are rejected with ErrReadOnly.
func ReadOnly(entryPoint EntryPoint) EntryPoint {
	return readOnly{entryPoint}
}
