package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-server/internal/domain/balance"
)

func newTestTransactionManager(t *testing.T) (*TransactionManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTransactionManager(&DB{DB: db}), mock
}

func TestTransactionManager_WithTransaction(t *testing.T) {
	t.Run("正常系: fn成功でコミット", func(t *testing.T) {
		tm, mock := newTestTransactionManager(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE balances`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.WithTransaction(context.Background(), func(tx *sql.Tx) error {
			_, err := tx.ExecContext(context.Background(), `UPDATE balances SET amount = amount + 1`)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("異常系: fnが失敗したらロールバックしてエラーをそのまま返す", func(t *testing.T) {
		tm, mock := newTestTransactionManager(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		wantErr := errors.New("domain failure")
		err := tm.WithTransaction(context.Background(), func(tx *sql.Tx) error {
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("異常系: Begin失敗はErrStoreUnavailable", func(t *testing.T) {
		tm, mock := newTestTransactionManager(t)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		called := false
		err := tm.WithTransaction(context.Background(), func(tx *sql.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, balance.ErrStoreUnavailable)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("異常系: Commit失敗はErrStoreUnavailable", func(t *testing.T) {
		tm, mock := newTestTransactionManager(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

		err := tm.WithTransaction(context.Background(), func(tx *sql.Tx) error {
			return nil
		})
		assert.ErrorIs(t, err, balance.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
