package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Sentinel errors returned by repositories in addition to sql.ErrNoRows.
var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrCapacityReached reports that a project has no seat left.
	ErrCapacityReached = errors.New("project capacity reached")
	// ErrStateChanged reports that a conditional update matched no row
	// because the record is no longer in the expected state.
	ErrStateChanged = errors.New("record state changed")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching value as a literal substring.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
