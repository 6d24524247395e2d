package claims

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rewards-go/asset"
	"github.com/bitfsorg/rewards-go/auth"
)

// Claim is funds parked for one recipient until they withdraw them.
type Claim struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	Recipient auth.Identity
	Asset     asset.Asset
	Amount    decimal.Decimal // fungible amount, or number of IDs
	IDs       []string        // non-fungible only
	CreatedAt time.Time
}

// Store persists outstanding claims.
type Store interface {
	// AddClaims stores all claims or none.
	AddClaims(claims []Claim) error

	// ClaimsFor returns the recipient's claims in creation order.
	ClaimsFor(recipient auth.Identity) ([]Claim, error)

	// RemoveClaims deletes the listed claims of recipient, all or none.
	RemoveClaims(recipient auth.Identity, ids []uuid.UUID) error

	// ListClaims returns every outstanding claim.
	ListClaims() ([]Claim, error)
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu          sync.RWMutex
	byRecipient map[auth.Identity][]Claim
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory claim store.
func NewMemStore() *MemStore {
	return &MemStore{byRecipient: make(map[auth.Identity][]Claim)}
}

// AddClaims appends claims.
func (s *MemStore) AddClaims(claims []Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range claims {
		s.byRecipient[c.Recipient] = append(s.byRecipient[c.Recipient], c)
	}
	return nil
}

// ClaimsFor returns a copy of the recipient's claims.
func (s *MemStore) ClaimsFor(recipient auth.Identity) ([]Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byRecipient[recipient]
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]Claim, len(list))
	copy(out, list)
	return out, nil
}

// RemoveClaims deletes claims by ID.
func (s *MemStore) RemoveClaims(recipient auth.Identity, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	list := s.byRecipient[recipient]
	kept := make([]Claim, 0, len(list))
	for _, c := range list {
		if drop[c.ID] {
			delete(drop, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	if len(drop) > 0 {
		return fmt.Errorf("%w: %d of %d for %s", ErrClaimNotFound, len(drop), len(ids), recipient)
	}
	if len(kept) == 0 {
		delete(s.byRecipient, recipient)
	} else {
		s.byRecipient[recipient] = kept
	}
	return nil
}

// ListClaims returns all claims.
func (s *MemStore) ListClaims() ([]Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Claim
	for _, list := range s.byRecipient {
		out = append(out, list...)
	}
	return out, nil
}
