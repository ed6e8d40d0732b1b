// Package revenue parses directory revenue values into signed integers.
package revenue

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/giving-cli/internal/failure"
)

// Normalize converts a raw revenue value into a signed integer.
//
// Numbers pass through. Strings are trimmed; accounting negatives "(1200)"
// become -1200; a lone "-" placeholder and absent values (nil, "") become 0;
// well-formed thousands separators are ignored. Anything else is an UnparseableRevenue
// failure.
func Normalize(raw any) (int64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return fromFloat(v, raw)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, unparseable(raw)
		}
		return fromFloat(f, raw)
	case string:
		return ParseString(v)
	default:
		return 0, unparseable(raw)
	}
}

// groupedRe matches an integer with well-formed thousands separators.
var groupedRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)

// ParseString applies the string rules of Normalize.
func ParseString(s string) (int64, error) {
	v := strings.TrimSpace(s)
	if v == "" || v == "-" {
		return 0, nil
	}

	neg := false
	if len(v) >= 2 && v[0] == '(' && v[len(v)-1] == ')' {
		v = strings.TrimSpace(v[1 : len(v)-1])
		if v == "" || v[0] == '-' || v[0] == '+' {
			return 0, unparseable(s)
		}
		neg = true
	}

	if strings.Contains(v, ",") {
		if !groupedRe.MatchString(v) {
			return 0, unparseable(s)
		}
		v = strings.ReplaceAll(v, ",", "")
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, unparseable(s)
	}
	if neg {
		n = -n
	}
	return n, nil
}

func fromFloat(f float64, raw any) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, unparseable(raw)
	}
	return int64(f), nil
}

func unparseable(raw any) error {
	return failure.Newf(failure.UnparseableRevenue, "revenue value %v is not an integer", raw)
}
