package counter

import (
	"context"

	"github.com/weegigs/wee-contracts-go/we"
)

// Client is a typed view of a single counter instance.
type Client struct {
	service we.ContractService
	id      we.ContractId
}

func NewClient(service we.ContractService, id we.ContractId) *Client {
	return &Client{service: service, id: id}
}

func InstanceId(key string) we.ContractId {
	return we.ContractId{Type: ContractType, Key: key}
}

func (c *Client) Id() we.ContractId {
	return c.id
}

func (c *Client) Increment(ctx context.Context) (uint32, error) {
	return c.invoke(ctx, Increment)
}

func (c *Client) Decrement(ctx context.Context) (uint32, error) {
	return c.invoke(ctx, Decrement)
}

func (c *Client) Reset(ctx context.Context) (uint32, error) {
	return c.invoke(ctx, Reset)
}

func (c *Client) GetCurrentValue(ctx context.Context) (uint32, error) {
	return c.simulate(ctx, GetCurrentValue)
}

func (c *Client) SimulateIncrement(ctx context.Context) (uint32, error) {
	return c.simulate(ctx, Increment)
}

func (c *Client) SimulateDecrement(ctx context.Context) (uint32, error) {
	return c.simulate(ctx, Decrement)
}

func (c *Client) SimulateReset(ctx context.Context) (uint32, error) {
	return c.simulate(ctx, Reset)
}

func (c *Client) invoke(ctx context.Context, entryPoint we.EntryPointName) (uint32, error) {
	result, err := c.service.Invoke(ctx, c.id, entryPoint)
	if err != nil {
		return 0, err
	}

	return we.DecodeResult[uint32](result)
}

func (c *Client) simulate(ctx context.Context, entryPoint we.EntryPointName) (uint32, error) {
	result, err := c.service.Simulate(ctx, c.id, entryPoint)
	if err != nil {
		return 0, err
	}

	return we.DecodeResult[uint32](result)
}
