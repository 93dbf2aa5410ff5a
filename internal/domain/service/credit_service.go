package service

import (
	"context"
	"errors"

	"credit-server/internal/domain/balance"
)

// CreditService クレジット関連のドメインサービス
type CreditService struct {
	balanceRepo balance.BalanceRepository
}

// NewCreditService 新しいCreditServiceを作成
func NewCreditService(balanceRepo balance.BalanceRepository) *CreditService {
	return &CreditService{
		balanceRepo: balanceRepo,
	}
}

// GetBalance ユーザーの現在残高を取得（レコードが存在しない場合は0）
func (s *CreditService) GetBalance(ctx context.Context, userID string) (int64, error) {
	b, err := s.balanceRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, balance.ErrBalanceNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return b.Amount(), nil
}

// HasEnoughCredits 指定された金額の残高があるかチェック
//
// 参考値の読み取りであり、減算のゲートには使えない。実際の減算は
// アトミックなガード付き更新の中でチェックされる
func (s *CreditService) HasEnoughCredits(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, balance.ErrInvalidAmount
	}
	current, err := s.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return current >= amount, nil
}
