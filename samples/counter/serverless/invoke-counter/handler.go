package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/weegigs/wee-contracts-go/connectors/wehttp"
	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/we"
)

type GatewayHandler = func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

type response struct {
	Value     *uint32           `json:"value,omitempty"`
	Revision  we.Revision       `json:"$revision,omitempty"`
	Ledger    we.LedgerSequence `json:"$ledger,omitempty"`
	Committed bool              `json:"$committed"`
	Error     string            `json:"error,omitempty"`
	Code      *uint32           `json:"code,omitempty"`
}

func createHandler(service we.ContractService) GatewayHandler {
	return func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		key := event.PathParameters["key"]
		entryPoint := we.EntryPointNameOf(event.PathParameters["entry_point"])

		if key == "" || entryPoint == "" {
			return reply(http.StatusBadRequest, response{Error: "key and entry point are required"})
		}

		if correlationId := correlationIdOf(event); correlationId != "" {
			ctx = we.ContextWithCorrelationId(ctx, correlationId)
		}

		id := counter.InstanceId(key)

		var result we.Result
		var err error
		switch event.RequestContext.HTTP.Method {
		case http.MethodGet:
			result, err = service.Simulate(ctx, id, entryPoint)
		case http.MethodPost:
			result, err = service.Invoke(ctx, id, entryPoint)
		default:
			return reply(http.StatusMethodNotAllowed, response{Error: "unsupported method"})
		}

		if err != nil {
			return failure(id, entryPoint, err)
		}

		value, err := we.DecodeResult[uint32](result)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{}, err
		}

		return reply(http.StatusOK, response{
			Value:     &value,
			Revision:  result.Revision,
			Ledger:    result.Ledger,
			Committed: result.Committed,
		})
	}
}

func correlationIdOf(event events.APIGatewayV2HTTPRequest) we.CorrelationID {
	for name, value := range event.Headers {
		if http.CanonicalHeaderKey(name) == wehttp.CorrelationIdHeader {
			return we.CorrelationID(value)
		}
	}

	return we.CorrelationID(event.RequestContext.RequestID)
}

func failure(id we.ContractId, entryPoint we.EntryPointName, err error) (events.APIGatewayV2HTTPResponse, error) {
	status := wehttp.StatusOf(err)
	body := response{Error: err.Error()}

	var contractError *we.ContractError
	if errors.As(err, &contractError) {
		body.Code = &contractError.Code
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("contract", id.String()).Str("entry_point", entryPoint.String()).Msg("failed to call entry point")
		body.Error = "failed to call entry point"
	}

	return reply(status, body)
}

func reply(status int, body response) (events.APIGatewayV2HTTPResponse, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(encoded),
	}, nil
}
