package entities

import (
	"fmt"
	"strings"
)

// RiskLevel is the ordinal legal-risk grade of a clause.
// Lower is better; Unknown ranks worse than every assessed level.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
	RiskVeryHigh
	RiskUnknown RiskLevel = 99
)

// Ordinal returns the comparison value: Low=1 .. VeryHigh=4, Unknown=99.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskVeryHigh:
		return int(r)
	default:
		return int(RiskUnknown)
	}
}

// Less reports whether r is strictly lower risk than other.
func (r RiskLevel) Less(other RiskLevel) bool {
	return r.Ordinal() < other.Ordinal()
}

// Acceptable reports whether the clause may be returned without further attempts.
func (r RiskLevel) Acceptable() bool {
	return r == RiskLow || r == RiskMedium
}

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	case RiskVeryHigh:
		return "Very High"
	default:
		return "Unknown"
	}
}

// ParseRiskLevel maps a label to a RiskLevel. Unrecognised labels yield Unknown
// and an error, never Low.
func ParseRiskLevel(s string) (RiskLevel, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
	switch norm {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	case "very high", "veryhigh":
		return RiskVeryHigh, nil
	case "unknown":
		return RiskUnknown, nil
	}
	return RiskUnknown, fmt.Errorf("unrecognised risk level %q", s)
}

// MarshalText renders the level label for JSON and YAML.
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a level label.
func (r *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}

// Category tags what a clause is about.
type Category string

const (
	CategoryTermination     Category = "Termination"
	CategoryConfidentiality Category = "Confidentiality"
	CategoryLiability       Category = "Liability"
	CategoryPayment         Category = "Payment"
	CategoryGeneral         Category = "General"
)
