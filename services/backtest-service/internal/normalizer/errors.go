package normalizer

import (
	"fmt"
	"strings"
)

// InvalidFormatError reports every required field that was missing or had the
// wrong shape in a backtest document.
type InvalidFormatError struct {
	Schema  Schema
	Missing []string
	Invalid []string
}

func (e *InvalidFormatError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invalid %s backtest document", e.Schema)
	}
	return fmt.Sprintf("invalid %s backtest document (%s)", e.Schema, strings.Join(parts, "; "))
}

func (e *InvalidFormatError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}
