package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type sqlstateErr string

func (e sqlstateErr) Error() string    { return string(e) }
func (e sqlstateErr) SQLState() string { return string(e) }

func TestIsUniqueConstraintError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062}, true},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452}, false},
		{"pq unique violation", &pq.Error{Code: "23505"}, true},
		{"pq foreign key violation", &pq.Error{Code: "23503"}, false},
		{"sqlstate unique", sqlstateErr("23505"), true},
		{"sqlstate other", sqlstateErr("40001"), false},
		{"sqlite message", errors.New("UNIQUE constraint failed: users.email"), true},
		{"postgres message", errors.New(`duplicate key value violates unique constraint "users_email_key"`), true},
		{"unrelated", errors.New("connection reset"), false},
		{"wrapped", fmt.Errorf("create user: %w", &mysql.MySQLError{Number: 1062}), true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsUniqueConstraintError(tt.err))
		})
	}
}

func TestIsForeignKeyConstraintError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql parent row", &mysql.MySQLError{Number: 1451}, true},
		{"mysql child row", &mysql.MySQLError{Number: 1452}, true},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062}, false},
		{"pq foreign key violation", &pq.Error{Code: "23503"}, true},
		{"pq unique violation", &pq.Error{Code: "23505"}, false},
		{"sqlstate foreign key", sqlstateErr("23503"), true},
		{"sqlite message", errors.New("FOREIGN KEY constraint failed"), true},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsForeignKeyConstraintError(tt.err))
		})
	}
}
