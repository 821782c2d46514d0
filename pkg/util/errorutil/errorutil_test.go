package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	orig := NewForbidden("nope")
	wrapped := fmt.Errorf("handler: %w", orig)

	got := ToDomainError(wrapped)
	if got.HTTPStatus != http.StatusForbidden || got.Code != "FORBIDDEN" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestToDomainErrorContextClasses(t *testing.T) {
	if got := ToDomainError(fmt.Errorf("read body: %w", context.Canceled)); got.HTTPStatus != StatusClientClosedRequest {
		t.Fatalf("expected 499 for cancellation, got %d", got.HTTPStatus)
	}
	if got := ToDomainError(context.DeadlineExceeded); got.HTTPStatus != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 for deadline, got %d", got.HTTPStatus)
	}
}

func TestToDomainErrorUnknownIsInternal(t *testing.T) {
	got := ToDomainError(errors.New("db down"))
	if got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got.HTTPStatus)
	}
	if got.Message != "internal server error" {
		t.Fatalf("internal detail leaked into message: %q", got.Message)
	}
}

func TestUnauthorizedHidesReason(t *testing.T) {
	err := NewUnauthorized(errors.New("token expired"))
	de := ToDomainError(err)
	if de.Message != "authentication required" {
		t.Fatalf("unexpected message %q", de.Message)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401")
	}
}

func TestRateLimitedDetails(t *testing.T) {
	de := ToDomainError(NewRateLimited("", 42))
	if de.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", de.HTTPStatus)
	}
	if de.Details["retry_after_seconds"] != 42 {
		t.Fatalf("unexpected details %+v", de.Details)
	}
}
