package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/rewards-go/asset"
)

var cents = asset.NewFungible("CENT", "CNT", 2)

// --- SplitByShares ---

func TestSplitByShares_LastTakesRemainder(t *testing.T) {
	shares := []Share{
		{Recipient: makeID(0x01), Weight: 1},
		{Recipient: makeID(0x02), Weight: 1},
		{Recipient: makeID(0x03), Weight: 1},
	}
	r, err := SplitByShares(cents, dec("100"), shares)
	require.NoError(t, err)

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Allocation.Amount.Equal(dec("33.33")))
	assert.True(t, entries[1].Allocation.Amount.Equal(dec("33.33")))
	assert.True(t, entries[2].Allocation.Amount.Equal(dec("33.34")))

	total, err := r.FungibleTotal()
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("100")))
}

func TestSplitByShares_Weighted(t *testing.T) {
	shares := []Share{
		{Recipient: makeID(0x01), Weight: 7000},
		{Recipient: makeID(0x02), Weight: 2000},
		{Recipient: makeID(0x03), Weight: 1000},
	}
	r, err := SplitByShares(cents, dec("9700"), shares)
	require.NoError(t, err)

	a, _ := r.Get(makeID(0x01))
	b, _ := r.Get(makeID(0x02))
	c, _ := r.Get(makeID(0x03))
	assert.True(t, a.Amount.Equal(dec("6790")))
	assert.True(t, b.Amount.Equal(dec("1940")))
	assert.True(t, c.Amount.Equal(dec("970")))
}

func TestSplitByShares_AmountsRepresentable(t *testing.T) {
	shares := []Share{
		{Recipient: makeID(0x01), Weight: 3},
		{Recipient: makeID(0x02), Weight: 7},
	}
	r, err := SplitByShares(cents, dec("0.05"), shares)
	require.NoError(t, err)
	for _, e := range r.Entries() {
		assert.True(t, cents.IsRepresentable(e.Allocation.Amount), e.Allocation.Amount.String())
	}
	a, _ := r.Get(makeID(0x01))
	assert.True(t, a.Amount.Equal(dec("0.01")))
}

func TestSplitByShares_ZeroTotal(t *testing.T) {
	r, err := SplitByShares(cents, dec("0"), []Share{{Recipient: makeID(0x01), Weight: 5}})
	require.NoError(t, err)
	total, err := r.FungibleTotal()
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestSplitByShares_Errors(t *testing.T) {
	one := []Share{{Recipient: makeID(0x01), Weight: 1}}

	_, err := SplitByShares(cents, dec("1"), nil)
	assert.ErrorIs(t, err, ErrNoShares)

	_, err = SplitByShares(cents, dec("1"), []Share{{Recipient: makeID(0x01)}})
	assert.ErrorIs(t, err, ErrZeroShare)

	_, err = SplitByShares(cents, dec("-1"), one)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = SplitByShares(cents, dec("1.001"), one)
	assert.ErrorIs(t, err, asset.ErrNotRepresentable)

	_, err = SplitByShares(asset.NewNonFungible("NFT", "NFT"), dec("1"), one)
	assert.ErrorIs(t, err, ErrUnsupportedAllocation)

	_, err = SplitByShares(cents, dec("1"), []Share{
		{Recipient: makeID(0x01), Weight: ^uint64(0)},
		{Recipient: makeID(0x02), Weight: 1},
	})
	assert.ErrorIs(t, err, ErrShareOverflow)

	_, err = SplitByShares(cents, dec("1"), []Share{
		{Recipient: makeID(0x01), Weight: 1},
		{Recipient: makeID(0x01), Weight: 1},
	})
	assert.ErrorIs(t, err, ErrDuplicateRecipient)
}
