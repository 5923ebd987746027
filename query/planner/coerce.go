package planner

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/syssam/lightdao/internal/conv"
)

var (
	decimalType = reflect.TypeFor[decimal.Decimal]()
	timeType    = reflect.TypeFor[time.Time]()
)

// Coerce converts a driver value into t. Numbers convert across kinds,
// strings and byte slices are parsed, and decimal.Decimal is produced from
// or reduced to any numeric form. A nil t returns v unchanged and a nil v
// returns the zero value of t.
func Coerce(v any, t reflect.Type) (any, error) {
	if t == nil {
		return v, nil
	}
	if v == nil {
		return reflect.Zero(t).Interface(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return v, nil
	}
	if t == decimalType {
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	if t == timeType {
		return nil, fmt.Errorf("lightdao: cannot coerce %T to time.Time", v)
	}
	switch t.Kind() {
	case reflect.String:
		switch v := v.(type) {
		case []byte:
			return reflect.ValueOf(string(v)).Convert(t).Interface(), nil
		case string:
			return reflect.ValueOf(v).Convert(t).Interface(), nil
		}
		return reflect.ValueOf(fmt.Sprint(v)).Convert(t).Interface(), nil
	case reflect.Bool:
		switch v := v.(type) {
		case bool:
			return reflect.ValueOf(v).Convert(t).Interface(), nil
		case string, []byte:
			b, err := strconv.ParseBool(asString(v))
			if err != nil {
				return nil, fmt.Errorf("lightdao: coerce %q to bool: %w", asString(v), err)
			}
			return reflect.ValueOf(b).Convert(t).Interface(), nil
		}
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(!d.IsZero()).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		out := reflect.New(t).Elem()
		out.SetInt(d.IntPart())
		return out.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("lightdao: cannot coerce negative %s to %s", d, t)
		}
		out := reflect.New(t).Elem()
		out.SetUint(uint64(d.IntPart()))
		return out.Interface(), nil
	case reflect.Float32, reflect.Float64:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		f, _ := d.Float64()
		out := reflect.New(t).Elem()
		out.SetFloat(f)
		return out.Interface(), nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("lightdao: cannot coerce %T to %s", v, t)
}

func asString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	s, _ := v.(string)
	return s
}

func toDecimal(v any) (decimal.Decimal, error) {
	d, err := conv.Decimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lightdao: coerce: %w", err)
	}
	return d, nil
}
