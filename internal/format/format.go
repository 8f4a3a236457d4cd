// Package format turns raw query values into display strings without
// recomputing them: numeric values are handled as exact decimals.
package format

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ecomdash/backend/internal/model"
)

// Missing is shown for NULL or absent scalar values.
const Missing = "-"

var printer = message.NewPrinter(language.English)

// Value formats v according to f.
func Value(f model.Format, v any) string {
	switch f {
	case model.FormatCurrency:
		return Currency(v)
	case model.FormatDecimal:
		return Decimal(v)
	case model.FormatFactor:
		return Factor(v)
	default:
		return Integer(v)
	}
}

// Integer groups thousands and keeps any fractional digits as returned.
func Integer(v any) string {
	s, ok := numericString(v)
	if !ok {
		return fallback(v)
	}
	return groupDecimal(s)
}

// Currency prints v as dollars with grouped thousands and two decimals.
func Currency(v any) string {
	r, ok := rat(v)
	if !ok {
		return fallback(v)
	}
	return "$" + groupDecimal(r.FloatString(2))
}

// Decimal prints v with exactly two decimals and no grouping.
func Decimal(v any) string {
	r, ok := rat(v)
	if !ok {
		return fallback(v)
	}
	return r.FloatString(2)
}

// Factor prints the value as returned followed by "x".
func Factor(v any) string {
	s, ok := numericString(v)
	if !ok {
		return fallback(v)
	}
	return s + "x"
}

// Cell renders a table cell. Numbers are passed through unchanged.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	case string:
		return x
	}
	if s, ok := numericString(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Number converts v to a json.Number for chart payloads.
func Number(v any) (json.Number, bool) {
	s, ok := numericString(v)
	if !ok {
		return "", false
	}
	if _, ok := new(big.Rat).SetString(s); !ok {
		return "", false
	}
	return json.Number(s), true
}

func fallback(v any) string {
	if v == nil {
		return Missing
	}
	return Cell(v)
}

func numericString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case json.Number:
		return string(x), true
	case []byte:
		return numericText(string(x))
	case string:
		return numericText(x)
	default:
		return "", false
	}
}

func numericText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, ok := new(big.Rat).SetString(s); !ok || s == "" {
		return "", false
	}
	return s, true
}

func rat(v any) (*big.Rat, bool) {
	s, ok := numericString(v)
	if !ok {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

// groupDecimal inserts thousands separators into the integer part of a
// plain decimal string.
func groupDecimal(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// exponent forms and values beyond int64 are shown as returned
		return sign + s
	}
	out := sign + printer.Sprintf("%d", n)
	if hasFrac {
		out += "." + frac
	}
	return out
}
