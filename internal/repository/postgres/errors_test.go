package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	ierr "github.com/vendora/vendora/internal/errors"
)

func TestWrapErr(t *testing.T) {
	assert.NoError(t, wrapErr(nil, "user"))
	assert.True(t, ierr.IsNotFound(wrapErr(sql.ErrNoRows, "user")))
	assert.True(t, ierr.IsAlreadyExists(wrapErr(&pq.Error{Code: pqUniqueViolation}, "user")))

	err := wrapErr(errors.New("connection refused"), "user")
	assert.False(t, ierr.IsNotFound(err))
	assert.True(t, ierr.Is(err, ierr.ErrDatabase))
}
