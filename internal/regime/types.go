package regime

import "fmt"

// Type classifies the active market regime. The regime is selected
// externally (or by the Detector heuristic) and feeds the configuration
// multiplier layer; the core never switches regimes on its own.
type Type string

const (
	TypeUnknown        Type = "unknown"
	TypeBull           Type = "bull"
	TypeBear           Type = "bear"
	TypeHighVolatility Type = "high_volatility"
)

// Parse converts a configuration string into a regime Type.
func Parse(s string) (Type, error) {
	switch Type(s) {
	case TypeBull, TypeBear, TypeHighVolatility, TypeUnknown:
		return Type(s), nil
	}
	return TypeUnknown, fmt.Errorf("unknown market regime %q", s)
}
