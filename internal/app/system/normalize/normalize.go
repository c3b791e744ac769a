// internal/app/system/normalize/normalize.go
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cell coerces a raw spreadsheet or JSON value to a trimmed string.
// Whole floats print without a fractional part so numeric mobile numbers
// keep their digits ("9876543210", not "9.87654321e+09").
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return strings.TrimSpace(t.String())
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		// nested structures never carry a usable scalar
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Mobile normalizes a phone number used as the record key.
func Mobile(v any) string {
	return Cell(v)
}

// Blank reports whether s is empty after trimming.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FirstNonBlank returns the first value that is non-blank after coercion.
func FirstNonBlank(vals ...any) string {
	for _, v := range vals {
		if s := Cell(v); s != "" {
			return s
		}
	}
	return ""
}

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Header canonicalizes a spreadsheet column header.
func Header(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
}
