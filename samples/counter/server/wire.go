//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/weegigs/wee-contracts-go/we"
)

func live(ctx context.Context) (we.ContractService, func(), error) {
	panic(wire.Build(Live))
}

func local(ctx context.Context) (we.ContractService, func(), error) {
	panic(wire.Build(Local))
}
