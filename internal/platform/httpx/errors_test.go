package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rentora/rentora-admin/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{shared.ErrInsufficientRole, http.StatusForbidden},
		{shared.ErrOutOfScope, http.StatusForbidden},
		{shared.ErrInvalidImpersonationState, http.StatusForbidden},
		{shared.ErrConflictingTransition, http.StatusConflict},
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrValidation, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		if rec.Code != tc.status {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		var problem ProblemDetail
		if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
			t.Errorf("%v: body is not a problem document: %v", tc.err, err)
			continue
		}
		if problem.Status != tc.status {
			t.Errorf("%v: problem status = %d, want %d", tc.err, problem.Status, tc.status)
		}
	}
}

// Wrapped errors keep their mapping, and the wrap context rides along in the
// detail field.
func TestRespondErrorUnwraps(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("session belongs to another impersonator: %w", shared.ErrOutOfScope))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var problem ProblemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if problem.Detail == "" {
		t.Errorf("detail should carry the wrapped context")
	}
}

// Unexpected errors must not leak internals to the client.
func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection refused"))
	var problem ProblemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if problem.Detail != "" {
		t.Errorf("internal error detail leaked: %q", problem.Detail)
	}
}
