package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestErrorImplementsErrorInterface(t *testing.T) {
	err := New(ValidationFailed, http.StatusBadRequest, "bad field")
	if err.Error() != "VALIDATION_FAILED: bad field" {
		t.Errorf("unexpected Error() output: %q", err.Error())
	}
}

func TestErrorWithCauseIncludesUnderlying(t *testing.T) {
	cause := errors.New("connection reset")
	err := New(DataSourceConnection, http.StatusBadGateway, "fetch failed").WithCause(cause)
	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return the wrapped cause")
	}
	if got := err.Error(); got != "DATASOURCE_CONNECTION_ERROR: fetch failed: connection reset" {
		t.Errorf("unexpected Error() output: %q", got)
	}
}

func TestStatusDefaultsTo500(t *testing.T) {
	err := &Error{Code: SystemInternal, Message: "oops"}
	if err.Status() != http.StatusInternalServerError {
		t.Errorf("expected default status 500, got %d", err.Status())
	}
}

func TestWithDetailsReturnsCopy(t *testing.T) {
	base := New(ValidationFailed, http.StatusBadRequest, "bad")
	withDetails := base.WithDetails(map[string]any{"field": "name"})
	if base.Details != nil {
		t.Error("expected original error to remain unmodified")
	}
	if withDetails.Details["field"] != "name" {
		t.Error("expected copy to carry the new details")
	}
}

func TestWriteErrorWritesJSONEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NewAlertRuleNotFound("rule-1"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Error.Code != string(AlertRuleNotFound) {
		t.Errorf("expected code %s, got %s", AlertRuleNotFound, body.Error.Code)
	}
}

func TestWriteErrorWrapsNonAPIErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("unexpected panic"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 for a generic error, got %d", rr.Code)
	}
}

func TestAsReturnsFalseForNonAPIError(t *testing.T) {
	_, ok := As(errors.New("plain error"))
	if ok {
		t.Error("expected As to return false for a non-*Error value")
	}
}
