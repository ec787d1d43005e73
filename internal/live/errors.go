package live

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Command failure taxonomy. InvalidState and validation errors are expected
// outcomes of a command, not faults; only ErrTransient wraps a real
// collaborator failure.
var (
	// ErrNotFound covers both absent and not-owned targets so that callers
	// cannot probe for the existence of presentations they do not own.
	ErrNotFound = errors.New("not found")

	ErrAlreadyLive       = errors.New("live session already started")
	ErrNotLive           = errors.New("presentation is not live")
	ErrAlreadyActive     = errors.New("question is already active")
	ErrNotActive         = errors.New("question is not active")
	ErrQuestionNotActive = errors.New("question is not open for responses")

	ErrEmptyValue        = errors.New("response value is empty")
	ErrEmptySessionID    = errors.New("session id is empty")
	ErrDuplicateResponse = errors.New("response already submitted for this question")

	ErrUnauthorized = errors.New("authentication required")
	ErrTransient    = errors.New("temporary failure, retry later")
)

var expected = []error{
	ErrNotFound, ErrAlreadyLive, ErrNotLive, ErrAlreadyActive, ErrNotActive,
	ErrQuestionNotActive, ErrEmptyValue, ErrEmptySessionID, ErrDuplicateResponse,
	ErrUnauthorized,
}

// IsExpected reports whether err is a normal command rejection rather than a
// collaborator failure. Expected rejections are answered with an Error event
// and never logged as failures.
func IsExpected(err error) bool {
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Classify maps a collaborator error into the taxonomy. Errors already in the
// taxonomy pass through; a missing row becomes ErrNotFound; a unique-key
// violation becomes ErrDuplicateResponse; anything else is a transient
// storage failure surfaced with a generic message.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsExpected(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateResponse
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
