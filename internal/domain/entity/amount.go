package entity

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// UnitsPerCoin is the number of smallest units in one whole coin.
const UnitsPerCoin = 100_000_000

// UnitName is the display name of the smallest currency unit.
const UnitName = "tinybar"

var (
	unitsPerCoin = decimal.NewFromInt(UnitsPerCoin)
	maxUnits     = decimal.NewFromInt(math.MaxInt64)
)

// Amount is a quantity of the smallest currency unit.
type Amount int64

// AmountFromCoins converts a decimal coin string (e.g. "100", "0.5") into
// smallest units. Fractions finer than one unit are rejected.
func AmountFromCoins(coins string) (Amount, error) {
	d, err := decimal.NewFromString(coins)
	if err != nil {
		return 0, fmt.Errorf("invalid coin amount %q: %w", coins, err)
	}
	units := d.Mul(unitsPerCoin)
	if !units.IsInteger() {
		return 0, fmt.Errorf("invalid coin amount %q: more precise than one %s", coins, UnitName)
	}
	if units.Abs().GreaterThan(maxUnits) {
		return 0, fmt.Errorf("invalid coin amount %q: out of range", coins)
	}
	return Amount(units.IntPart()), nil
}

// Coins renders the amount in whole coins with full precision.
func (a Amount) Coins() string {
	return decimal.NewFromInt(int64(a)).Div(unitsPerCoin).StringFixed(8)
}

func (a Amount) String() string {
	return fmt.Sprintf("%d %s", int64(a), UnitName)
}

// Ceilings bounds what a client may spend on fees and query payments.
type Ceilings struct {
	MaxTransactionFee Amount
	MaxQueryPayment   Amount
}

// Validate rejects negative ceilings.
func (c Ceilings) Validate() error {
	if c.MaxTransactionFee < 0 {
		return fmt.Errorf("max transaction fee must not be negative: %d", c.MaxTransactionFee)
	}
	if c.MaxQueryPayment < 0 {
		return fmt.Errorf("max query payment must not be negative: %d", c.MaxQueryPayment)
	}
	return nil
}
