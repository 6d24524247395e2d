package batch

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rewards-go/asset"
	"github.com/bitfsorg/rewards-go/auth"
)

// Share is one recipient's weight in a proportional split.
type Share struct {
	Recipient auth.Identity
	Weight    uint64
}

// SplitByShares builds a fungible request dividing total among shares by
// weight. Each amount is truncated to the asset precision and the last share
// takes whatever is left, so the request always sums to total.
func SplitByShares(a asset.Asset, total decimal.Decimal, shares []Share) (*Request, error) {
	if !a.IsFungible() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAllocation, a)
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, total)
	}
	if !a.IsRepresentable(total) {
		return nil, fmt.Errorf("%w: %s", asset.ErrNotRepresentable, total)
	}
	if len(shares) == 0 {
		return nil, ErrNoShares
	}

	var sum uint64
	for _, s := range shares {
		if s.Weight == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroShare, s.Recipient)
		}
		if sum+s.Weight < sum {
			return nil, ErrShareOverflow
		}
		sum += s.Weight
	}
	weightSum := weight(sum)

	r := &Request{}
	distributed := decimal.Zero
	for i, s := range shares {
		var amount decimal.Decimal
		if i == len(shares)-1 {
			amount = total.Sub(distributed)
		} else {
			amount, _ = total.Mul(weight(s.Weight)).QuoRem(weightSum, int32(a.Decimals))
			distributed = distributed.Add(amount)
		}
		if err := r.Add(s.Recipient, Fungible(amount)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func weight(w uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(w), 0)
}
