package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credit-server/internal/domain/balance"
)

// MockBalanceRepository モック残高リポジトリ
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) FindByUserID(ctx context.Context, userID string) (*balance.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) AdjustWithGuard(ctx context.Context, tx *sql.Tx, userID string, delta int64) (int64, error) {
	args := m.Called(ctx, tx, userID, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceRepository) EnsureAndLock(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	args := m.Called(ctx, tx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestCreditService_GetBalance(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		setupMocks func(*MockBalanceRepository)
		want       int64
		wantError  bool
	}{
		{
			name:   "正常系: 残高が存在",
			userID: "user123",
			setupMocks: func(mbr *MockBalanceRepository) {
				b := balance.MustNewBalance("user123", 1000, 1)
				mbr.On("FindByUserID", mock.Anything, "user123").Return(b, nil)
			},
			want: 1000,
		},
		{
			name:   "正常系: レコードが存在しないユーザーは残高0",
			userID: "user123",
			setupMocks: func(mbr *MockBalanceRepository) {
				mbr.On("FindByUserID", mock.Anything, "user123").Return(nil, balance.ErrBalanceNotFound)
			},
			want: 0,
		},
		{
			name:   "異常系: ストアエラー",
			userID: "user123",
			setupMocks: func(mbr *MockBalanceRepository) {
				mbr.On("FindByUserID", mock.Anything, "user123").Return(nil, errors.New("database error"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockBalanceRepository)
			tt.setupMocks(mockRepo)

			svc := NewCreditService(mockRepo)

			got, err := svc.GetBalance(context.Background(), tt.userID)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCreditService_HasEnoughCredits(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		amount     int64
		setupMocks func(*MockBalanceRepository)
		want       bool
		wantError  error
	}{
		{
			name:   "正常系: 残高が足りている",
			userID: "user123",
			amount: 30,
			setupMocks: func(mbr *MockBalanceRepository) {
				b := balance.MustNewBalance("user123", 100, 1)
				mbr.On("FindByUserID", mock.Anything, "user123").Return(b, nil)
			},
			want: true,
		},
		{
			name:   "正常系: ちょうど足りている",
			userID: "user123",
			amount: 100,
			setupMocks: func(mbr *MockBalanceRepository) {
				b := balance.MustNewBalance("user123", 100, 1)
				mbr.On("FindByUserID", mock.Anything, "user123").Return(b, nil)
			},
			want: true,
		},
		{
			name:   "正常系: 残高不足",
			userID: "user123",
			amount: 101,
			setupMocks: func(mbr *MockBalanceRepository) {
				b := balance.MustNewBalance("user123", 100, 1)
				mbr.On("FindByUserID", mock.Anything, "user123").Return(b, nil)
			},
			want: false,
		},
		{
			name:   "正常系: レコードなしは残高0として判定",
			userID: "user123",
			amount: 1,
			setupMocks: func(mbr *MockBalanceRepository) {
				mbr.On("FindByUserID", mock.Anything, "user123").Return(nil, balance.ErrBalanceNotFound)
			},
			want: false,
		},
		{
			name:       "異常系: 金額0",
			userID:     "user123",
			amount:     0,
			setupMocks: func(mbr *MockBalanceRepository) {},
			wantError:  balance.ErrInvalidAmount,
		},
		{
			name:       "異常系: マイナス金額",
			userID:     "user123",
			amount:     -10,
			setupMocks: func(mbr *MockBalanceRepository) {},
			wantError:  balance.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockBalanceRepository)
			tt.setupMocks(mockRepo)

			svc := NewCreditService(mockRepo)

			got, err := svc.HasEnoughCredits(context.Background(), tt.userID, tt.amount)

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.False(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
