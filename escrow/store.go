package escrow

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind classifies a journal entry.
type MovementKind uint8

const (
	MovementDeposit    MovementKind = iota + 1 // owner deposit
	MovementWithdrawal                         // funds taken for a distribution
	MovementRemainder                          // leftover returned by the distribution facility
	MovementRefund                             // withdrawal returned unused after a failed hand-off
)

// String returns the kind name.
func (k MovementKind) String() string {
	switch k {
	case MovementDeposit:
		return "deposit"
	case MovementWithdrawal:
		return "withdrawal"
	case MovementRemainder:
		return "remainder"
	case MovementRefund:
		return "refund"
	default:
		return "unknown"
	}
}

// Movement is one committed change of the escrowed amount.
type Movement struct {
	Seq    uint64 // assigned by the store, starting at 1
	Kind   MovementKind
	Amount decimal.Decimal // always positive; Kind gives the direction
	Ref    string          // batch ID or other caller reference, may be empty
	Time   time.Time
}

// Store persists escrow balances and their journals, keyed by asset ID.
type Store interface {
	// LoadBalance returns the stored amount, or zero if nothing was stored yet.
	LoadBalance(assetID string) (decimal.Decimal, error)

	// Commit atomically stores the new amount and appends movements,
	// assigning their sequence numbers.
	Commit(assetID string, amount decimal.Decimal, movements []Movement) error

	// Movements returns the journal in sequence order.
	Movements(assetID string) ([]Movement, error)
}

// MemStore is an in-memory Store for tests and ephemeral deployments.
type MemStore struct {
	mu        sync.RWMutex
	balances  map[string]decimal.Decimal
	movements map[string][]Movement
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		balances:  make(map[string]decimal.Decimal),
		movements: make(map[string][]Movement),
	}
}

// LoadBalance returns the stored amount.
func (s *MemStore) LoadBalance(assetID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	amount, ok := s.balances[assetID]
	if !ok {
		return decimal.Zero, nil
	}
	return amount, nil
}

// Commit stores amount and appends movements.
func (s *MemStore) Commit(assetID string, amount decimal.Decimal, movements []Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal := s.movements[assetID]
	for _, m := range movements {
		m.Seq = uint64(len(journal)) + 1
		journal = append(journal, m)
	}
	s.movements[assetID] = journal
	s.balances[assetID] = amount
	return nil
}

// Movements returns a copy of the journal.
func (s *MemStore) Movements(assetID string) ([]Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	journal := s.movements[assetID]
	out := make([]Movement, len(journal))
	copy(out, journal)
	return out, nil
}
