package wehttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weegigs/wee-contracts-go/we"
)

const CorrelationIdHeader = "X-Correlation-Id"

type HandlerOption func(service *httpService)

func Logger(log *zerolog.Logger) HandlerOption {
	return func(service *httpService) {
		service.log = log
	}
}

func Encoder(encoder we.ResultEncoder) HandlerOption {
	return func(service *httpService) {
		service.encoder = encoder
	}
}

func WithMetrics(metrics *Metrics) HandlerOption {
	return func(service *httpService) {
		service.metrics = metrics
	}
}

// NewHandler serves contract invocations under /contracts/{type}/{key}. GET simulates an entry point and POST invokes it.
func NewHandler(contracts we.ContractService, options ...HandlerOption) http.Handler {
	service := &httpService{contracts: contracts, encoder: we.JSONResultEncoder{}}
	for _, option := range options {
		option(service)
	}
	if service.log == nil {
		service.log = &log.Logger
	}

	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/contracts/{type}/{key}", func(r chi.Router) {
		r.Get("/", service.describe())
		r.Get("/{entry_point}", service.call(false))
		r.Post("/{entry_point}", service.call(true))
	})

	return WithTelemetry(r, "we-http")
}

type httpService struct {
	log       *zerolog.Logger
	contracts we.ContractService
	encoder   we.ResultEncoder
	metrics   *Metrics
}

type errorResponse struct {
	Error string  `json:"error"`
	Code  *uint32 `json:"code,omitempty"`
}

func contractId(r *http.Request) we.ContractId {
	return we.ContractId{Type: chi.URLParam(r, "type"), Key: chi.URLParam(r, "key")}
}

func (service *httpService) describe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := contractId(r)
		entryPoints, err := service.contracts.Describe(id)
		if err != nil {
			service.fail(w, r, id, "", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"contract":     id.String(),
			"entry_points": entryPoints,
		})
	}
}

func (service *httpService) call(commit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := contractId(r)
		entryPoint := we.EntryPointNameOf(chi.URLParam(r, "entry_point"))

		ctx := r.Context()
		if correlationId := r.Header.Get(CorrelationIdHeader); correlationId != "" {
			ctx = we.ContextWithCorrelationId(ctx, we.CorrelationID(correlationId))
		}

		var result we.Result
		var err error
		if commit {
			result, err = service.contracts.Invoke(ctx, id, entryPoint)
		} else {
			result, err = service.contracts.Simulate(ctx, id, entryPoint)
		}

		service.metrics.observe(entryPoint, err, time.Since(start))

		if err != nil {
			service.fail(w, r, id, entryPoint, err)
			return
		}

		if err := service.encoder.Encode(w, r, result); err != nil {
			service.log.Error().Err(err).Str("contract", id.String()).Str("entry_point", entryPoint.String()).Msg("failed to encode result")
		}
	}
}

func (service *httpService) fail(w http.ResponseWriter, r *http.Request, id we.ContractId, entryPoint we.EntryPointName, err error) {
	status := StatusOf(err)
	response := errorResponse{Error: err.Error()}

	var contractError *we.ContractError
	if errors.As(err, &contractError) {
		response.Code = &contractError.Code
	}

	if status == http.StatusInternalServerError {
		service.log.Error().Err(err).Str("contract", id.String()).Str("entry_point", entryPoint.String()).Msg("failed to call entry point")
		response.Error = "failed to call entry point"
	} else {
		service.log.Info().Err(err).Str("contract", id.String()).Str("entry_point", entryPoint.String()).Msg("entry point rejected")
	}

	render.Status(r, status)
	render.JSON(w, r, response)
}

func StatusOf(err error) int {
	var notFound we.EntryPointNotFoundError
	var contractError *we.ContractError
	var invalidId *we.InvalidContractIdError

	switch {
	case errors.As(err, &invalidId):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, we.ErrNotHosted):
		return http.StatusNotFound
	case errors.As(err, &contractError):
		return http.StatusUnprocessableEntity
	case errors.Is(err, we.ErrReadOnly):
		return http.StatusMethodNotAllowed
	case errors.Is(err, we.RevisionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
