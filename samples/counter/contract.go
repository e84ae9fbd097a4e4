package counter

import (
	"context"
	"math"

	"github.com/weegigs/wee-contracts-go/we"
)

const ContractType = "counter"

const (
	Increment       = we.EntryPointName("increment")
	Decrement       = we.EntryPointName("decrement")
	Reset           = we.EntryPointName("reset")
	GetCurrentValue = we.EntryPointName("get_current_value")
)

const (
	TTLThreshold uint32 = 50
	TTLExtendTo  uint32 = 100
)

var CounterKey = we.ShortSymbol("COUNTER")

var ErrCounterOverflow = we.NewContractError(1, "counter overflow")

func Descriptor() we.ContractDescriptor {
	return we.ContractDescriptor{
		Name: ContractType,
		EntryPoints: map[we.EntryPointName]func() we.EntryPoint{
			Increment:       increment,
			Decrement:       decrement,
			Reset:           reset,
			GetCurrentValue: getCurrentValue,
		},
	}
}

func current(env *we.Env) (uint32, error) {
	return we.GetOr[uint32](env.Storage(), CounterKey, 0)
}

func store(env *we.Env, count uint32) error {
	storage := env.Storage()
	if err := storage.Set(CounterKey, count); err != nil {
		return err
	}

	return storage.ExtendTTL(CounterKey, TTLThreshold, TTLExtendTo)
}

func increment() we.EntryPoint {
	var entryPoint we.EntryPointFunction[uint32] = func(ctx context.Context, env *we.Env) (uint32, error) {
		count, err := current(env)
		if err != nil {
			return 0, err
		}

		env.Log().Debug().Uint32("count", count).Msg("count")

		if count == math.MaxUint32 {
			return 0, ErrCounterOverflow
		}
		count++

		if err := store(env, count); err != nil {
			return 0, err
		}

		return count, nil
	}

	return entryPoint
}

func decrement() we.EntryPoint {
	var entryPoint we.EntryPointFunction[uint32] = func(ctx context.Context, env *we.Env) (uint32, error) {
		count, err := current(env)
		if err != nil {
			return 0, err
		}

		env.Log().Debug().Uint32("count", count).Msg("count before decrement")

		if count > 0 {
			count--
		}

		if err := store(env, count); err != nil {
			return 0, err
		}

		return count, nil
	}

	return entryPoint
}

func reset() we.EntryPoint {
	var entryPoint we.EntryPointFunction[uint32] = func(ctx context.Context, env *we.Env) (uint32, error) {
		env.Log().Debug().Msg("resetting counter to 0")

		if err := store(env, 0); err != nil {
			return 0, err
		}

		return 0, nil
	}

	return entryPoint
}

func getCurrentValue() we.EntryPoint {
	var entryPoint we.EntryPointFunction[uint32] = func(ctx context.Context, env *we.Env) (uint32, error) {
		count, err := current(env)
		if err != nil {
			return 0, err
		}

		env.Log().Debug().Uint32("count", count).Msg("current count")

		return count, nil
	}

	return we.ReadOnly(entryPoint)
}
