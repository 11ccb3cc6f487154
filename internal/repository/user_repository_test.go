package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestUpdateBuildsSetListFromPatchedFieldsOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE users SET name = \$1, phone = \$2, updated_at = NOW\(\)\s+WHERE id = \$3`).
		WithArgs("Dana", "555-0100", uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password", "phone", "loyalty_points", "confirmed_user", "created_at", "updated_at",
		}).AddRow(7, "Dana", "dana@example.com", "hash", "555-0100", 40, true, now, now))

	u, err := NewUserRepo(db).Update(context.Background(), 7, UserPatch{
		Name:  strp("Dana"),
		Phone: strp("555-0100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The zero floor on penalty debits lives in the GREATEST expression, so
// a 10-point balance charged 15 lands at 0 rather than going negative.
// This pins the exact statement the debit issues.
func TestDeductPointsFloorsBalanceAtZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET loyalty_points = GREATEST\(loyalty_points - \$1, 0\), updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs(15, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, NewUserRepo(db).DeductPointsTx(context.Background(), tx, 7, 15))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmptyPatchSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewUserRepo(db).Update(context.Background(), 7, UserPatch{})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
