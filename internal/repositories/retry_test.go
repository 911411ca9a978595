package repositories

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestUniqueViolationIsRecognizedThroughWrapping(t *testing.T) {
	// GIVEN the error a losing racer gets on a document-number collision,
	// wrapped the way the repositories wrap their failures
	collision := fmt.Errorf("failed to create invoice: %w",
		&pgconn.PgError{Code: "23505", ConstraintName: "invoices_document_no_key"})

	// THEN it is classified as retryable
	if !isUniqueViolation(collision) {
		t.Error("wrapped unique_violation not recognized as retryable")
	}
}

func TestOtherErrorsAreNotRetried(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"nil on success", nil},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}},
		{"plain error", fmt.Errorf("connection refused")},
	}

	for _, tc := range cases {
		if isUniqueViolation(tc.err) {
			t.Errorf("%s: classified as unique violation, must not be retried", tc.name)
		}
	}
}
