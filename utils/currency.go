package utils

import (
	"strconv"
	"strings"
)

// FormatAmount formats an amount in minor units with dot thousand separators,
// prefixed by symbol when it is not empty.
// Example: FormatAmount(18800, "$") -> "$ 18.800"
func FormatAmount(amount int64, symbol string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var groups []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:i]}, groups...)
	}

	out := strings.Join(groups, ".")
	if neg {
		out = "-" + out
	}
	if symbol == "" {
		return out
	}
	return symbol + " " + out
}
