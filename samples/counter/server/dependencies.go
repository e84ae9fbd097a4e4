package main

import (
	"github.com/google/wire"

	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/stores/ds"
	"github.com/weegigs/wee-contracts-go/stores/memory"
)

var Live = wire.NewSet(counter.Services, ds.Live)

var Local = wire.NewSet(counter.Services, memory.Local)
