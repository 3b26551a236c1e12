package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/types"
)

const jsonContentType = "application/json; charset=utf-8"

// maxBodySize caps request bodies, a signed request is a few hundred bytes.
const maxBodySize = 4 << 10

// handlerFunc is an http.HandlerFunc that returns its result instead of
// writing it.
type handlerFunc func(r *http.Request) (any, *types.Error)

func wrap(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := f(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, obj any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err *types.Error) {
	status := err.Code.StatusCode()
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		// storage details stay in the logs
		message = "Internal service error"
	}

	writeJSON(w, r, status, ErrorResponse{
		ErrorCode: err.Code.String(),
		Message:   message,
	})
}

// parseJSON decodes a single JSON object in strict mode.
func parseJSON(r *http.Request, v any) *types.Error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return types.NewErrorWithMsg(types.BadRequest, "empty request body")
		}
		return types.NewErrorWithMsg(types.BadRequest, "invalid request body: %v", err)
	}
	if decoder.More() {
		return types.NewErrorWithMsg(types.BadRequest, "invalid request body: trailing data")
	}
	return nil
}
