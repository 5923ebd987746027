// Package conv converts driver and template values between numeric forms.
package conv

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

// IsNumber reports whether v is an integer, float or decimal.Decimal.
func IsNumber(v any) bool {
	switch v.(type) {
	case decimal.Decimal, *decimal.Decimal:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Decimal converts a number, a numeric string or byte slice, or a bool into
// a decimal.Decimal.
func Decimal(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, nil
		}
		return *v, nil
	case string:
		return parse(v)
	case []byte:
		return parse(string(v))
	case bool:
		if v {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), nil
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(rv.Float()), nil
	}
	return decimal.Zero, fmt.Errorf("%T is not a number", v)
}

func parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	return d, nil
}

// Widen maps a scalar to its canonical parameter form: signed and unsigned
// integers become int64 (uint64 above MaxInt64 stays uint64), floats become
// float64, integral decimals int64 and other decimals float64. Other values
// are returned unchanged.
func Widen(v any) any {
	switch v := v.(type) {
	case nil, int64, float64, string, bool:
		return v
	case decimal.Decimal:
		return widenDecimal(v)
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		return widenDecimal(*v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u)
		}
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

func widenDecimal(d decimal.Decimal) any {
	if d.IsInteger() && d.GreaterThanOrEqual(minInt64) && d.LessThanOrEqual(maxInt64) {
		return d.IntPart()
	}
	f, _ := d.Float64()
	return f
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Int64 converts an integral number to int64.
func Int64(v any) (int64, error) {
	d, err := Decimal(v)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%s is not an integer", d)
	}
	return d.IntPart(), nil
}
