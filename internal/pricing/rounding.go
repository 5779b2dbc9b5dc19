package pricing

import (
	"github.com/shopspring/decimal"
)

// bandTolerance is how far a rounded price may sit outside the margin band.
const bandTolerance = 1e-6

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// displayPrice rounds price to cents without leaving [lo, hi].
// If rounding would cross a bound, the nearest cent inside the band is used;
// when no cent fits inside the band the unrounded price is returned.
func displayPrice(price, lo, hi float64) float64 {
	rounded := roundTo(price, 2)
	if rounded >= lo-bandTolerance && rounded <= hi+bandTolerance {
		return rounded
	}

	var snapped float64
	if rounded < lo {
		snapped, _ = decimal.NewFromFloat(lo).RoundCeil(2).Float64()
	} else {
		snapped, _ = decimal.NewFromFloat(hi).RoundFloor(2).Float64()
	}
	if snapped < lo-bandTolerance || snapped > hi+bandTolerance {
		return price
	}
	return snapped
}
