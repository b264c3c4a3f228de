package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/scoring"
	"github.com/arunkumarkundra/choicease/internal/store"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	writeMessage(w, statusFor(err), err.Error())
}

// badRequest marks errors caused by a malformed request body.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, whatif.ErrSessionNotFound),
		errors.Is(err, whatif.ErrSessionClosed),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, decision.ErrNoOptions),
		errors.Is(err, decision.ErrNoCriteria),
		errors.Is(err, decision.ErrUnknownOption),
		errors.Is(err, decision.ErrUnknownCriterion),
		errors.Is(err, decision.ErrRatingOutOfRange),
		errors.Is(err, decision.ErrImportanceOutOfRange),
		errors.Is(err, decision.ErrDuplicateOptionID),
		errors.Is(err, decision.ErrDuplicateCriterionID),
		errors.Is(err, decision.ErrMalformedRatingKey),
		errors.Is(err, whatif.ErrInvalidWeight):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// readDocument decodes a JSON or YAML export document from the request body
// and resolves its model and weights.
func readDocument(r *http.Request) (*decision.Model, scoring.Weights, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, badRequest{fmt.Errorf("read body: %w", err)}
	}
	doc, err := decision.ParseDocument(body)
	if err != nil {
		return nil, nil, badRequest{err}
	}
	m, w, _, err := scoring.Rehydrate(doc)
	return m, w, err
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}
