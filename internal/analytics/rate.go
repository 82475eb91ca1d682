package analytics

import (
	"math"
	"strconv"
)

// Rate is a derived percentage (or other derived float metric). A zero
// denominator yields NaN upstream; Rate marshals NaN/Inf as JSON null so
// undefined values propagate to callers unmodified instead of crashing
// the encoder.
type Rate float64

func (r Rate) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// pct computes num/den*100 as a Rate. 0/0 is NaN by IEEE semantics, which
// is exactly the undefined-marker behavior the API contract asks for.
func pct(num, den float64) Rate {
	return Rate(num / den * 100.0)
}
