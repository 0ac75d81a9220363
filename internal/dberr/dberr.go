// Package dberr classifies driver-level errors from the persistence
// adapter into the distinguishable classes the rest of the system reacts
// to: contention (safe to retry), unique violation, foreign-key
// violation, and malformed identifiers.
package dberr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes relevant to the persistence adapter.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
)

// ContentionError marks an error as a deadlock or serialization failure
// that is safe to retry with backoff.
type ContentionError struct {
	Err error
}

func (e *ContentionError) Error() string { return e.Err.Error() }
func (e *ContentionError) Unwrap() error { return e.Err }

// IsContention reports whether err is (or wraps) a ContentionError.
func IsContention(err error) bool {
	var ce *ContentionError
	return errors.As(err, &ce)
}

// IsNoRows reports whether err is pgx's "no rows" sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err came from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsInvalidID reports whether err reflects a malformed UUID literal.
func IsInvalidID(err error) bool {
	return hasCode(err, codeInvalidTextRepr)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// Classify wraps err in a ContentionError when it represents a deadlock or
// serialization failure, covering both well-formed SQLSTATEs and the
// message-substring fallback for driver/pooler-mangled errors (MySQL 1213
// style messages, or a pooler that only forwards free text).
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFail, codeDeadlockDetected:
			return &ContentionError{Err: err}
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "deadlock") || strings.Contains(msg, "try restarting transaction") {
		return &ContentionError{Err: err}
	}
	return err
}
