package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

// MemoryOrderStore is an in-memory VoucherOrderStore. The stock decrement is
// atomic and guarded like the SQL statement, (user, voucher) is unique, and a
// failed transaction undoes its own writes. Reads see uncommitted writes of
// other transactions, which only makes races easier to hit.
type MemoryOrderStore struct {
	mu     sync.Mutex
	stock  map[int64]int
	orders map[[2]int64]voucher.Order

	// FailInsert, when set, is returned by InsertOrder.
	FailInsert error
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{stock: map[int64]int{}, orders: map[[2]int64]voucher.Order{}}
}

func (s *MemoryOrderStore) SetStock(voucherID int64, stock int) {
	s.mu.Lock()
	s.stock[voucherID] = stock
	s.mu.Unlock()
}

func (s *MemoryOrderStore) Stock(voucherID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[voucherID]
}

// Orders returns the committed orders sorted by id.
func (s *MemoryOrderStore) Orders() []voucher.Order {
	s.mu.Lock()
	out := make([]voucher.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InTx implements VoucherOrderStore.InTx.
func (s *MemoryOrderStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.VoucherOrderTx) error) error {
	tx := &memoryTx{s: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type memoryTx struct {
	s    *MemoryOrderStore
	undo []func()
}

func (t *memoryTx) ExistsOrder(_ context.Context, userID, voucherID int64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, ok := t.s.orders[[2]int64{userID, voucherID}]
	return ok, nil
}

func (t *memoryTx) DecrementStock(_ context.Context, voucherID int64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.stock[voucherID] <= 0 {
		return false, nil
	}
	t.s.stock[voucherID]--
	t.undo = append(t.undo, func() { t.s.stock[voucherID]++ })
	return true, nil
}

func (t *memoryTx) InsertOrder(_ context.Context, o *voucher.Order) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.FailInsert != nil {
		return t.s.FailInsert
	}
	k := [2]int64{o.UserID, o.VoucherID}
	if _, dup := t.s.orders[k]; dup {
		return ports.ErrDuplicateOrder
	}
	o.CreatedAt = time.Now().UTC()
	t.s.orders[k] = *o
	t.undo = append(t.undo, func() { delete(t.s.orders, k) })
	return nil
}

func (t *memoryTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

var _ ports.VoucherOrderStore = (*MemoryOrderStore)(nil)
