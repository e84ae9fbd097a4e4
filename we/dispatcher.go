package we

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type EntryPoints map[EntryPointName]EntryPoint

type Dispatcher interface {
	Lookup(name EntryPointName) (EntryPoint, error)
	Dispatch(ctx context.Context, env *Env) (Data, error)
}

type RoutedDispatcher struct {
	EntryPoints EntryPoints
}

func NewRoutedDispatcher(descriptor ContractDescriptor) *RoutedDispatcher {
	entryPoints := EntryPoints{}
	for name, create := range descriptor.EntryPoints {
		entryPoints[name] = create()
	}

	return &RoutedDispatcher{EntryPoints: entryPoints}
}

func (d *RoutedDispatcher) Lookup(name EntryPointName) (EntryPoint, error) {
	entryPoint := d.EntryPoints[name]
	if entryPoint == nil {
		return nil, EntryPointNotFound(name)
	}

	return entryPoint, nil
}

func (d *RoutedDispatcher) Dispatch(ctx context.Context, env *Env) (Data, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("dispatch %s", env.EntryPoint()))
	defer span.End()

	span.SetAttributes(
		attribute.String("contract", env.Contract().String()),
		attribute.Int64("ledger", int64(env.Ledger())),
	)

	entryPoint, err := d.Lookup(env.EntryPoint())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Data{}, err
	}

	data, err := entryPoint.Invoke(ctx, env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Data{}, err
	}

	return data, nil
}

func (d *RoutedDispatcher) Describe() []EntryPointInfo {
	infos := make([]EntryPointInfo, 0, len(d.EntryPoints))
	for name, entryPoint := range d.EntryPoints {
		infos = append(infos, EntryPointInfo{Name: name, Access: entryPoint.Access().String()})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

func EntryPointNotFound(name EntryPointName) EntryPointNotFoundError {
	return EntryPointNotFoundError{EntryPoint: name}
}

type EntryPointNotFoundError struct {
	EntryPoint EntryPointName
}

func (e EntryPointNotFoundError) Error() string {
	return fmt.Sprintf("unknown entry point: %s", e.EntryPoint)
}
