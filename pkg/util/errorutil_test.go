package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	orig := NewInvalidTransition("CLOSED", "OPEN")
	got := ToDomainError(orig)
	if got.Code != "INVALID_TRANSITION" || got.HTTPStatus != http.StatusConflict {
		t.Errorf("got %+v", got)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	got := ToDomainError(fmt.Errorf("load: %w", pgx.ErrNoRows))
	if got.Code != "NOT_FOUND" || got.HTTPStatus != http.StatusNotFound {
		t.Errorf("got %+v", got)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	got := ToDomainError(errors.New("boom"))
	if got.Code != "INTERNAL_ERROR" || got.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("got %+v", got)
	}
	if !errors.Is(got, got.Err) {
		t.Error("cause not preserved")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotAssigned("needs an agent"))
	if !IsCode(err, "NOT_ASSIGNED") {
		t.Error("IsCode failed through wrapping")
	}
	if IsCode(err, "NOT_FOUND") {
		t.Error("IsCode matched wrong code")
	}
	if IsCode(nil, "NOT_FOUND") {
		t.Error("IsCode matched nil")
	}
}
