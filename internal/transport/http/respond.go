package httptransport

import (
	"encoding/json"
	"net/http"

	pkgerrors "namereg/pkg/errors"
)

type errorBody struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeError translates a domain error to the JSON error envelope. Every
// handler funnels failures through here so clients see one shape.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pkgerrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{
		Code:    pkgerrors.WireCode(code),
		Message: pkgerrors.MessageOf(err),
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
