package main

import (
	"github.com/google/wire"

	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/stores/ds"
)

var Live = wire.NewSet(createHandler, counter.Services, ds.Live)
