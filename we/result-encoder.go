package we

import (
	"net/http"

	"github.com/goccy/go-json"
)

type ResultEncoder interface {
	Encode(w http.ResponseWriter, r *http.Request, result Result) error
}

// JSONResultEncoder writes the decoded value alongside $-prefixed invocation metadata.
type JSONResultEncoder struct{}

func (JSONResultEncoder) Encode(w http.ResponseWriter, _ *http.Request, result Result) error {
	var value json.RawMessage
	if len(result.Value.Data) > 0 {
		if err := UnmarshalFromData(result.Value, &value); err != nil {
			return err
		}
	}

	body := map[string]any{
		"value":        value,
		"$contract":    result.Contract.String(),
		"$entry_point": result.EntryPoint,
		"$revision":    result.Revision,
		"$ledger":      result.Ledger,
		"$committed":   result.Committed,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", `"`+result.Revision.String()+`"`)
	return json.NewEncoder(w).Encode(body)
}
