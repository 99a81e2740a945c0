package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(pgx.ErrNoRows)
	if de.Code != "NOT_FOUND" || de.HTTPStatus != http.StatusNotFound {
		t.Fatalf("got %s/%d, want NOT_FOUND/404", de.Code, de.HTTPStatus)
	}
}

func TestToDomainErrorMapsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_number_key"}
	de := ToDomainError(err)
	if de.Code != "CONSTRAINT_VIOLATION" {
		t.Fatalf("got %s, want CONSTRAINT_VIOLATION", de.Code)
	}
	if de.Details["constraint"] != "tickets_ticket_number_key" {
		t.Fatalf("constraint detail missing: %v", de.Details)
	}
}

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	orig := NewInvalidTransition("resume requires pending", nil)
	de := ToDomainError(orig)
	if de.Code != "INVALID_TRANSITION" {
		t.Fatalf("got %s, want INVALID_TRANSITION", de.Code)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	if de.Code != "INTERNAL_ERROR" || de.Unwrap() == nil {
		t.Fatalf("unexpected mapping: %+v", de)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected true for 23505")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected false for 23503")
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Fatal("expected false for non-pg error")
	}
}
