package mysql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"credit-server/internal/domain/balance"
)

func TestBalanceRepository_FindByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &BalanceRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}

	tests := []struct {
		name      string
		userID    string
		setupMock func()
		want      *balance.Balance
		wantError bool
		errorType error
	}{
		{
			name:   "正常系: 残高が見つかる",
			userID: "user123",
			setupMock: func() {
				rows := sqlmock.NewRows([]string{"user_id", "amount", "version"}).
					AddRow("user123", 1000, 3)
				mock.ExpectQuery(`SELECT user_id, amount, version`).
					WithArgs("user123").
					WillReturnRows(rows)
			},
			want: balance.MustNewBalance("user123", 1000, 3),
		},
		{
			name:   "異常系: 残高が見つからない",
			userID: "user123",
			setupMock: func() {
				mock.ExpectQuery(`SELECT user_id, amount, version`).
					WithArgs("user123").
					WillReturnError(sql.ErrNoRows)
			},
			wantError: true,
			errorType: balance.ErrBalanceNotFound,
		},
		{
			name:   "異常系: 一時的なDBエラーはErrStoreUnavailableに分類",
			userID: "user123",
			setupMock: func() {
				mock.ExpectQuery(`SELECT user_id, amount, version`).
					WithArgs("user123").
					WillReturnError(sql.ErrConnDone)
			},
			wantError: true,
			errorType: balance.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			ctx := context.Background()
			got, err := repo.FindByUserID(ctx, tt.userID)

			if tt.wantError {
				assert.Error(t, err)
				if tt.errorType != nil {
					assert.ErrorIs(t, err, tt.errorType)
				}
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.UserID(), got.UserID())
				assert.Equal(t, tt.want.Amount(), got.Amount())
				assert.Equal(t, tt.want.Version(), got.Version())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBalanceRepository_AdjustWithGuard(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		delta     int64
		setupMock func(sqlmock.Sqlmock)
		want      int64
		wantError bool
		errorType error
	}{
		{
			name:   "正常系: 加算",
			userID: "user123",
			delta:  100,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO balances`).
					WithArgs("user123").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`UPDATE balances`).
					WithArgs(int64(100), "user123", int64(100), int64(100), int64(balance.MaxBalance)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT amount FROM balances`).
					WithArgs("user123").
					WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(100))
			},
			want: 100,
		},
		{
			name:   "正常系: 減算",
			userID: "user123",
			delta:  -30,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO balances`).
					WithArgs("user123").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`UPDATE balances`).
					WithArgs(int64(-30), "user123", int64(-30), int64(-30), int64(balance.MaxBalance)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT amount FROM balances`).
					WithArgs("user123").
					WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(70))
			},
			want: 70,
		},
		{
			name:   "異常系: ガード条件を満たさない減算は残高不足",
			userID: "user123",
			delta:  -100,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO balances`).
					WithArgs("user123").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`UPDATE balances`).
					WithArgs(int64(-100), "user123", int64(-100), int64(-100), int64(balance.MaxBalance)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantError: true,
			errorType: balance.ErrInsufficientFunds,
		},
		{
			name:   "異常系: ガード条件を満たさない加算は残高範囲外",
			userID: "user123",
			delta:  100,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO balances`).
					WithArgs("user123").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`UPDATE balances`).
					WithArgs(int64(100), "user123", int64(100), int64(100), int64(balance.MaxBalance)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantError: true,
			errorType: balance.ErrBalanceOutOfRange,
		},
		{
			name:   "異常系: デッドロックはErrStoreUnavailableに分類",
			userID: "user123",
			delta:  -30,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO balances`).
					WithArgs("user123").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`UPDATE balances`).
					WithArgs(int64(-30), "user123", int64(-30), int64(-30), int64(balance.MaxBalance)).
					WillReturnError(sql.ErrConnDone)
			},
			wantError: true,
			errorType: balance.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := &BalanceRepository{
				db:     &DB{DB: db},
				tracer: otel.Tracer("test"),
			}

			tt.setupMock(mock)

			ctx := context.Background()
			tx, err := db.BeginTx(ctx, nil)
			require.NoError(t, err)

			got, err := repo.AdjustWithGuard(ctx, tx, tt.userID, tt.delta)

			if tt.wantError {
				assert.Error(t, err)
				if tt.errorType != nil {
					assert.ErrorIs(t, err, tt.errorType)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBalanceRepository_EnsureAndLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &BalanceRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT IGNORE INTO balances`).
		WithArgs("user123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT amount FROM balances WHERE user_id = \? FOR UPDATE`).
		WithArgs("user123").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(0))

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	amount, err := repo.EnsureAndLock(ctx, tx, "user123")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	assert.NoError(t, mock.ExpectationsWereMet())
}
