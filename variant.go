//go:build windows
// +build windows

package wmipp

import (
	"math"
	"strconv"
	"time"
	"unicode/utf16"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// WideString is a UTF-16 encoded string, the text representation WMI uses
// natively.  It is a distinct type so that requesting a wide string can be
// told apart from requesting a []uint16 numeric array.
type WideString []uint16

func (w WideString) String() string {
	return string(utf16.Decode(w))
}

// Convert translates a WMI property variant into the requested Go shape.
//
// There are only two outcomes: a valid value of type T, or absent
// (ok == false).  Absent subsumes every failure mode - tag mismatch,
// numeric overflow, unreadable array - and carries no diagnostic, because
// "this property cannot be read as T" is an expected result of exploratory
// querying, not an error.
//
// Supported targets:
//
//	*ole.VARIANT             pass-through, no conversion
//	bool, int8..int64,
//	uint8..uint64,
//	float32, float64         scalar coercion, overflow checked
//	string, WideString       via the BSTR intermediate representation
//	time.Time                VT_DATE or CIM datetime text
//	[]bool, []intN, []uintN,
//	[]floatN                 homogeneous SAFEARRAY copy, order preserved
//	[]string, []WideString   SAFEARRAY of BSTR handles
//
// Ownership of the variant stays with the caller in every case, including
// array conversions: the SAFEARRAY is only borrowed while its elements are
// copied out.
func Convert[T any](variant *ole.VARIANT) (value T, ok bool) {
	if variant == nil {
		return value, false
	}

	switch target := any(&value).(type) {
	case **ole.VARIANT:
		*target = variant
		return value, true

	case *bool:
		return value, assign(target, variant, toBool)
	case *int8:
		return value, assign(target, variant, toInt[int8])
	case *int16:
		return value, assign(target, variant, toInt[int16])
	case *int32:
		return value, assign(target, variant, toInt[int32])
	case *int64:
		return value, assign(target, variant, toInt[int64])
	case *uint8:
		return value, assign(target, variant, toUint[uint8])
	case *uint16:
		return value, assign(target, variant, toUint[uint16])
	case *uint32:
		return value, assign(target, variant, toUint[uint32])
	case *uint64:
		return value, assign(target, variant, toUint[uint64])
	case *float32:
		return value, assign(target, variant, toFloat[float32])
	case *float64:
		return value, assign(target, variant, toFloat[float64])

	case *string:
		// Text conversions go through the BSTR intermediate so that both
		// the narrow and the wide representation decode the same way.
		return value, assign(target, variant, toString)
	case *WideString:
		s, ok := toString(variantScalar(variant))
		if !ok {
			return value, false
		}
		*target = utf16.Encode([]rune(s))
		return value, true

	case *time.Time:
		return value, assign(target, variant, toTime)

	case *[]bool:
		return value, assignSlice(target, variant, toBool)
	case *[]int8:
		return value, assignSlice(target, variant, toInt[int8])
	case *[]int16:
		return value, assignSlice(target, variant, toInt[int16])
	case *[]int32:
		return value, assignSlice(target, variant, toInt[int32])
	case *[]int64:
		return value, assignSlice(target, variant, toInt[int64])
	case *[]uint8:
		return value, assignSlice(target, variant, toUint[uint8])
	case *[]uint16:
		return value, assignSlice(target, variant, toUint[uint16])
	case *[]uint32:
		return value, assignSlice(target, variant, toUint[uint32])
	case *[]uint64:
		return value, assignSlice(target, variant, toUint[uint64])
	case *[]float32:
		return value, assignSlice(target, variant, toFloat[float32])
	case *[]float64:
		return value, assignSlice(target, variant, toFloat[float64])

	case *[]string:
		strings, ok := variantStrings(variant)
		if !ok {
			return value, false
		}
		*target = strings
		return value, true
	case *[]WideString:
		strings, ok := variantStrings(variant)
		if !ok {
			return value, false
		}
		wide := make([]WideString, 0, len(strings))
		for _, s := range strings {
			wide = append(wide, utf16.Encode([]rune(s)))
		}
		*target = wide
		return value, true

	default:
		return value, false
	}
}

// assign extracts the variant's scalar value and coerces it into *target.
func assign[T any](target *T, variant *ole.VARIANT, coerce func(interface{}) (T, bool)) bool {
	converted, ok := coerce(variantScalar(variant))
	if !ok {
		return false
	}
	*target = converted
	return true
}

// assignSlice copies a homogeneous SAFEARRAY into *target, coercing every
// element.  The array view is borrowed, never destroyed; the variant's owner
// frees the underlying storage with VariantClear.  A single element that
// fails to coerce makes the whole conversion absent - never a partial slice.
func assignSlice[E any](target *[]E, variant *ole.VARIANT, coerce func(interface{}) (E, bool)) bool {
	if variant.VT&ole.VT_ARRAY == 0 {
		return false
	}
	array := variant.ToArray()
	if array == nil || array.Array == nil {
		return false
	}

	values := array.ToValueArray()
	result := make([]E, 0, len(values))
	for _, element := range values {
		converted, ok := coerce(element)
		if !ok {
			return false
		}
		result = append(result, converted)
	}

	*target = result
	return true
}

// variantStrings reads a SAFEARRAY of BSTR handles into Go strings,
// preserving order.  Each handle is read exactly once; the copies are
// independent of the source array.
func variantStrings(variant *ole.VARIANT) ([]string, bool) {
	if variant.VT != ole.VT_ARRAY|ole.VT_BSTR {
		return nil, false
	}
	array := variant.ToArray()
	if array == nil || array.Array == nil {
		return nil, false
	}
	return array.ToStringArray(), true
}

// variantScalar extracts the native Go value for a scalar variant tag.
// Unsupported tags (null, empty, records, arrays) yield nil.
func variantScalar(variant *ole.VARIANT) interface{} {
	switch variant.VT {
	case ole.VT_BOOL:
		return variant.Val != 0
	case ole.VT_I1:
		return int8(variant.Val)
	case ole.VT_I2:
		return int16(variant.Val)
	case ole.VT_I4:
		return int32(variant.Val)
	case ole.VT_I8:
		return variant.Val
	case ole.VT_UI1:
		return uint8(variant.Val)
	case ole.VT_UI2:
		return uint16(variant.Val)
	case ole.VT_UI4:
		return uint32(variant.Val)
	case ole.VT_UI8:
		return uint64(variant.Val)
	case ole.VT_R4:
		return *(*float32)(unsafe.Pointer(&variant.Val))
	case ole.VT_R8:
		return *(*float64)(unsafe.Pointer(&variant.Val))
	case ole.VT_BSTR:
		// WMI marshals CIM uint64, sint64 and datetime properties as BSTR,
		// so textual values must stay convertible into numeric targets.
		return variant.ToString()
	case ole.VT_DATE:
		if date, ok := variant.Value().(time.Time); ok {
			return date
		}
		return nil
	default:
		return nil
	}
}

func toBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(v)
		return parsed, err == nil
	default:
		if n, ok := toInt[int64](value); ok {
			return n != 0, true
		}
		return false, false
	}
}

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func toInt[T signed](value interface{}) (T, bool) {
	var limit T
	bits := int(unsafe.Sizeof(limit)) * 8

	var wide int64
	switch v := value.(type) {
	case bool:
		if v {
			wide = 1
		}
	case int8:
		wide = int64(v)
	case int16:
		wide = int64(v)
	case int32:
		wide = int64(v)
	case int64:
		wide = v
	case uint8:
		wide = int64(v)
	case uint16:
		wide = int64(v)
	case uint32:
		wide = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		wide = int64(v)
	case float32:
		return floatToInt[T](float64(v))
	case float64:
		return floatToInt[T](v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, bits)
		if err != nil {
			return 0, false
		}
		return T(parsed), true
	default:
		return 0, false
	}

	if bits < 64 && (wide < -(int64(1)<<(bits-1)) || wide > int64(1)<<(bits-1)-1) {
		return 0, false
	}
	return T(wide), true
}

func toUint[T unsigned](value interface{}) (T, bool) {
	var limit T
	bits := int(unsafe.Sizeof(limit)) * 8

	var wide uint64
	switch v := value.(type) {
	case bool:
		if v {
			wide = 1
		}
	case int8:
		if v < 0 {
			return 0, false
		}
		wide = uint64(v)
	case int16:
		if v < 0 {
			return 0, false
		}
		wide = uint64(v)
	case int32:
		if v < 0 {
			return 0, false
		}
		wide = uint64(v)
	case int64:
		if v < 0 {
			return 0, false
		}
		wide = uint64(v)
	case uint8:
		wide = uint64(v)
	case uint16:
		wide = uint64(v)
	case uint32:
		wide = uint64(v)
	case uint64:
		wide = v
	case float32:
		return floatToUint[T](float64(v))
	case float64:
		return floatToUint[T](v)
	case string:
		parsed, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return 0, false
		}
		return T(parsed), true
	default:
		return 0, false
	}

	if bits < 64 && wide > uint64(1)<<bits-1 {
		return 0, false
	}
	return T(wide), true
}

func floatToInt[T signed](f float64) (T, bool) {
	// float64(math.MaxInt64) rounds up to exactly 2^63, which is out of
	// range, so the upper bound must be exclusive.
	if math.Trunc(f) != f || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return toInt[T](int64(f))
}

func floatToUint[T unsigned](f float64) (T, bool) {
	// Same rounding at the top: float64(math.MaxUint64) is exactly 2^64.
	if math.Trunc(f) != f || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return toUint[T](uint64(f))
}

func toFloat[T ~float32 | ~float64](value interface{}) (T, bool) {
	switch v := value.(type) {
	case float32:
		return T(v), true
	case float64:
		return T(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return T(parsed), err == nil
	default:
		if n, ok := toInt[int64](value); ok {
			return T(n), true
		}
		if n, ok := toUint[uint64](value); ok {
			return T(n), true
		}
		return 0, false
	}
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case time.Time:
		return v.Format(time.RFC3339), true
	default:
		if n, ok := value.(uint64); ok {
			return strconv.FormatUint(n, 10), true
		}
		if n, ok := toInt[int64](value); ok {
			return strconv.FormatInt(n, 10), true
		}
		return "", false
	}
}

func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := parseCIMDatetime(v)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

// parseCIMDatetime parses the CIM DATETIME format used by WMI:
// yyyymmddHHMMSS.mmmmmmsUUU, where s is the offset sign and UUU the offset
// from UTC in minutes (e.g. "20240115093042.125000+060").
func parseCIMDatetime(value string) (time.Time, error) {
	if len(value) != 25 || value[14] != '.' {
		return time.Time{}, &time.ParseError{Layout: "yyyymmddHHMMSS.mmmmmmsUUU", Value: value}
	}

	base, err := time.Parse("20060102150405", value[:14])
	if err != nil {
		return time.Time{}, err
	}
	micros, err := strconv.Atoi(value[15:21])
	if err != nil {
		return time.Time{}, err
	}
	offset, err := strconv.Atoi(value[22:25])
	if err != nil {
		return time.Time{}, err
	}
	switch value[21] {
	case '+':
	case '-':
		offset = -offset
	default:
		return time.Time{}, &time.ParseError{Layout: "yyyymmddHHMMSS.mmmmmmsUUU", Value: value}
	}

	zone := time.FixedZone("", offset*60)
	return time.Date(base.Year(), base.Month(), base.Day(),
		base.Hour(), base.Minute(), base.Second(), micros*1000, zone), nil
}
