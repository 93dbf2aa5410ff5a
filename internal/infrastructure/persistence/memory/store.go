// Package memory はリポジトリ群のインメモリ実装を提供する。
// 開発環境での起動とレジャーエンジンの並行・原子性テストに使う。
// アトミック単位はストア全体のミューテックスで直列化され、fnが失敗した
// 場合はスナップショットから巻き戻すことで「両方成功か両方取り消しか」を保証する。
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/transaction"
)

// Store 残高とトランザクションログの共有状態
type Store struct {
	mu       sync.Mutex
	balances map[string]*balanceRecord
	log      []*logRecord
	seq      int64
}

type balanceRecord struct {
	amount  int64
	version int
}

type logRecord struct {
	seq int64
	txn *transaction.Transaction
}

// NewStore 新しいStoreを作成
func NewStore() *Store {
	return &Store{
		balances: make(map[string]*balanceRecord),
	}
}

// BalanceRepository このストア上のBalanceRepositoryビューを返す
func (s *Store) BalanceRepository() *BalanceRepository {
	return &BalanceRepository{store: s}
}

// TransactionRepository このストア上のTransactionRepositoryビューを返す
func (s *Store) TransactionRepository() *TransactionRepository {
	return &TransactionRepository{store: s}
}

// WithTransaction アトミック単位を実行する
//
// ストア全体をロックして直列化し、fnが失敗した場合は開始時点の
// スナップショットに巻き戻す。fn内ではtxとしてnilが渡される
func (s *Store) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	if err := fn(nil); err != nil {
		s.restoreLocked(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	balances map[string]balanceRecord
	logLen   int
	seq      int64
}

func (s *Store) snapshotLocked() storeSnapshot {
	balances := make(map[string]balanceRecord, len(s.balances))
	for k, v := range s.balances {
		balances[k] = *v
	}
	return storeSnapshot{
		balances: balances,
		logLen:   len(s.log),
		seq:      s.seq,
	}
}

func (s *Store) restoreLocked(snap storeSnapshot) {
	s.balances = make(map[string]*balanceRecord, len(snap.balances))
	for k, v := range snap.balances {
		rec := v
		s.balances[k] = &rec
	}
	s.log = s.log[:snap.logLen]
	s.seq = snap.seq
}

func (s *Store) ensureLocked(userID string) *balanceRecord {
	rec, ok := s.balances[userID]
	if !ok {
		rec = &balanceRecord{}
		s.balances[userID] = rec
	}
	return rec
}

func (s *Store) matchLocked(userID string, transactionType transaction.TransactionType) []*logRecord {
	var matched []*logRecord
	for _, rec := range s.log {
		if rec.txn.UserID() != userID {
			continue
		}
		if transactionType != "" && rec.txn.TransactionType() != transactionType {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

// BalanceRepository インメモリ実装のBalanceRepository
type BalanceRepository struct {
	store *Store
}

// FindByUserID ユーザーIDで残高を取得
func (r *BalanceRepository) FindByUserID(ctx context.Context, userID string) (*balance.Balance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.balances[userID]
	if !ok {
		return nil, balance.ErrBalanceNotFound
	}
	return balance.NewBalance(userID, rec.amount, rec.version)
}

// AdjustWithGuard 残高に符号付きの増減を適用する条件付き更新
// WithTransaction内からのみ呼ばれる（ロックは取得済み）
func (r *BalanceRepository) AdjustWithGuard(ctx context.Context, tx *sql.Tx, userID string, delta int64) (int64, error) {
	rec := r.store.ensureLocked(userID)

	next := rec.amount + delta
	if next < 0 {
		if delta < 0 {
			return 0, balance.ErrInsufficientFunds
		}
		return 0, balance.ErrBalanceOutOfRange
	}
	if next > balance.MaxBalance {
		return 0, balance.ErrBalanceOutOfRange
	}

	rec.amount = next
	rec.version++
	return rec.amount, nil
}

// EnsureAndLock 残高レコードを作成（未存在時）し、現在残高を返す
// WithTransaction内からのみ呼ばれる（直列化はWithTransactionが担う）
func (r *BalanceRepository) EnsureAndLock(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	return r.store.ensureLocked(userID).amount, nil
}

// TransactionRepository インメモリ実装のTransactionRepository
type TransactionRepository struct {
	store *Store
}

// Save トランザクションをログに追記
// WithTransaction内からのみ呼ばれる（ロックは取得済み）
func (r *TransactionRepository) Save(ctx context.Context, tx *sql.Tx, t *transaction.Transaction) error {
	for _, rec := range r.store.log {
		if rec.txn.TransactionID() == t.TransactionID() {
			return transaction.ErrDuplicateTransactionID
		}
	}
	r.store.seq++
	r.store.log = append(r.store.log, &logRecord{seq: r.store.seq, txn: t})
	return nil
}

// FindByTransactionID トランザクションIDでトランザクションを取得
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range r.store.log {
		if rec.txn.TransactionID() == transactionID {
			return rec.txn, nil
		}
	}
	return nil, transaction.ErrTransactionNotFound
}

// FindByUserID ユーザーIDでトランザクション一覧を取得（コミット順の降順、ページネーション対応）
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string, transactionType transaction.TransactionType, limit, offset int) ([]*transaction.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := r.store.matchLocked(userID, transactionType)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq > matched[j].seq
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}

	result := make([]*transaction.Transaction, 0, len(matched))
	for _, rec := range matched {
		result = append(result, rec.txn)
	}
	return result, nil
}

// CountByUserID ユーザーIDでトランザクション総件数を取得
func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string, transactionType transaction.TransactionType) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return len(r.store.matchLocked(userID, transactionType)), nil
}

// ExistsTodayByType 当日（UTC基準の暦日）に指定タイプのトランザクションが存在するかチェック
// WithTransaction内からのみ呼ばれる（ロックは取得済み）
func (r *TransactionRepository) ExistsTodayByType(ctx context.Context, tx *sql.Tx, userID string, transactionType transaction.TransactionType) (bool, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, rec := range r.store.log {
		if rec.txn.UserID() != userID || rec.txn.TransactionType() != transactionType {
			continue
		}
		if !rec.txn.CreatedAt().UTC().Before(today) {
			return true, nil
		}
	}
	return false, nil
}
