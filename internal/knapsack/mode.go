package knapsack

import "strings"

// ParseMode maps user input onto a Mode. An empty string selects ModeBounded.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "bounded", "0/1", "01", "binary":
		return ModeBounded, nil
	case "unbounded", "unlimited":
		return ModeUnbounded, nil
	default:
		return "", invalidField("mode", "must be bounded or unbounded")
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeBounded || m == ModeUnbounded
}
