package claims

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/rewards-go/auth"
	"github.com/bitfsorg/rewards-go/batch"
)

func makeID(seed byte) auth.Identity {
	var id auth.Identity
	for i := range id {
		id[i] = seed
	}
	return id
}

func batchEntry(recipient auth.Identity, amount string) batch.Entry {
	return batch.Entry{Recipient: recipient, Allocation: batch.Fungible(dec(amount))}
}

func newClaim(t *testing.T, recipient auth.Identity, amount string) Claim {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return Claim{
		ID:        id,
		BatchID:   uuid.New(),
		Recipient: recipient,
		Asset:     cents,
		Amount:    dec(amount),
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	bolt, err := OpenBoltStore(filepath.Join(t.TempDir(), "claims", "claims.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })
	return map[string]Store{
		"mem":  NewMemStore(),
		"bolt": bolt,
	}
}

func TestStore_AddListRemove(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			alice, bob := makeID(0xA1), makeID(0xB2)
			c1 := newClaim(t, alice, "1.5")
			c2 := newClaim(t, alice, "2")
			c3 := newClaim(t, bob, "0.25")
			require.NoError(t, store.AddClaims([]Claim{c1, c2, c3}))

			list, err := store.ClaimsFor(alice)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, c1.ID, list[0].ID)
			assert.Equal(t, c2.ID, list[1].ID)
			assert.True(t, list[0].Amount.Equal(dec("1.5")))
			assert.Equal(t, cents, list[0].Asset)
			assert.Equal(t, alice, list[0].Recipient)

			all, err := store.ListClaims()
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, store.RemoveClaims(alice, []uuid.UUID{c1.ID}))
			list, err = store.ClaimsFor(alice)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, c2.ID, list[0].ID)

			require.NoError(t, store.RemoveClaims(alice, []uuid.UUID{c2.ID}))
			list, err = store.ClaimsFor(alice)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStore_RemoveUnknownIsAtomic(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			alice := makeID(0xA1)
			c1 := newClaim(t, alice, "1")
			require.NoError(t, store.AddClaims([]Claim{c1}))

			err := store.RemoveClaims(alice, []uuid.UUID{c1.ID, uuid.New()})
			assert.ErrorIs(t, err, ErrClaimNotFound)

			list, err := store.ClaimsFor(alice)
			require.NoError(t, err)
			assert.Len(t, list, 1)

			err = store.RemoveClaims(makeID(0xEE), []uuid.UUID{c1.ID})
			assert.ErrorIs(t, err, ErrClaimNotFound)
		})
	}
}

func TestStore_NonFungibleIDs(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			c := newClaim(t, makeID(0x01), "2")
			c.Asset = badge
			c.IDs = []string{"#1#", "#2#"}
			require.NoError(t, store.AddClaims([]Claim{c}))

			list, err := store.ClaimsFor(makeID(0x01))
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, []string{"#1#", "#2#"}, list[0].IDs)
			assert.Equal(t, badge, list[0].Asset)
		})
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.db")
	store, err := OpenBoltStore(path)
	require.NoError(t, err)

	c := newClaim(t, makeID(0x42), "7.77")
	require.NoError(t, store.AddClaims([]Claim{c}))
	require.NoError(t, store.Close())

	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	list, err := store.ClaimsFor(makeID(0x42))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, c.BatchID, list[0].BatchID)
	assert.True(t, list[0].Amount.Equal(dec("7.77")))
	assert.True(t, c.CreatedAt.Equal(list[0].CreatedAt))
}

func TestLocker_WithBoltStore(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	defer store.Close()

	l := NewLocker(store)
	dep, alice := newKey(t), newKey(t)
	require.NoError(t, l.AuthorizeDepositor(identity(dep)))

	req := request(t, batchEntry(identity(alice), "4.2"))
	leftover, err := l.BatchDeposit(credCtx(t, dep, auth.OpLockerDeposit), req, mint(t, cents, "5"), true)
	require.NoError(t, err)
	require.NotNil(t, leftover)
	assert.True(t, leftover.Amount().Equal(dec("0.8")))

	out, err := l.Claim(credCtx(t, alice, auth.OpClaim), identity(alice), cents.ID)
	require.NoError(t, err)
	assert.True(t, out.Amount().Equal(dec("4.2")))

	total, err := l.Outstanding(cents.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
