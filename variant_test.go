//go:build windows
// +build windows

package wmipp

import (
	"math"
	"testing"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/windows"
)

// Lazy load the oleaut32.dll APIs used to build test arrays
var (
	oleaut32                  = windows.NewLazySystemDLL("oleaut32.dll")
	procSafeArrayCreateVector = oleaut32.NewProc("SafeArrayCreateVector")
	procSafeArrayPutElement   = oleaut32.NewProc("SafeArrayPutElement")
)

func newStringVariant(value string) *ole.VARIANT {
	variant := ole.NewVariant(ole.VT_BSTR, int64(uintptr(unsafe.Pointer(ole.SysAllocStringLen(value)))))
	return &variant
}

func newFloat64Variant(value float64) *ole.VARIANT {
	variant := ole.NewVariant(ole.VT_R8, int64(math.Float64bits(value)))
	return &variant
}

func newInt32ArrayVariant(t *testing.T, values []int32) *ole.VARIANT {
	t.Helper()
	array, _, _ := procSafeArrayCreateVector.Call(uintptr(ole.VT_I4), 0, uintptr(len(values)))
	if array == 0 {
		t.Fatal("SafeArrayCreateVector failed")
	}
	for i := range values {
		index := int32(i)
		hres, _, _ := procSafeArrayPutElement.Call(array,
			uintptr(unsafe.Pointer(&index)),
			uintptr(unsafe.Pointer(&values[i])))
		if FAILED(hres) {
			t.Fatalf("SafeArrayPutElement failed, index=%v, hres=%08Xh", i, hres)
		}
	}
	variant := ole.NewVariant(ole.VT_ARRAY|ole.VT_I4, int64(array))
	return &variant
}

func newStringArrayVariant(t *testing.T, values []string) *ole.VARIANT {
	t.Helper()
	array, _, _ := procSafeArrayCreateVector.Call(uintptr(ole.VT_BSTR), 0, uintptr(len(values)))
	if array == 0 {
		t.Fatal("SafeArrayCreateVector failed")
	}
	for i, value := range values {
		index := int32(i)
		// SafeArrayPutElement copies the BSTR, so ours is freed right away.
		bstr := ole.SysAllocStringLen(value)
		hres, _, _ := procSafeArrayPutElement.Call(array,
			uintptr(unsafe.Pointer(&index)),
			uintptr(unsafe.Pointer(bstr)))
		ole.SysFreeString(bstr)
		if FAILED(hres) {
			t.Fatalf("SafeArrayPutElement failed, index=%v, hres=%08Xh", i, hres)
		}
	}
	variant := ole.NewVariant(ole.VT_ARRAY|ole.VT_BSTR, int64(array))
	return &variant
}

func TestConvertPassThrough(t *testing.T) {
	variant := ole.NewVariant(ole.VT_I4, 42)

	converted, ok := Convert[*ole.VARIANT](&variant)
	assert.True(t, ok)
	assert.Equal(t, &variant, converted)
}

func TestConvertScalars(t *testing.T) {
	variant := ole.NewVariant(ole.VT_I4, 42)

	if value, ok := Convert[int32](&variant); assert.True(t, ok) {
		assert.Equal(t, int32(42), value)
	}
	if value, ok := Convert[int64](&variant); assert.True(t, ok) {
		assert.Equal(t, int64(42), value)
	}
	if value, ok := Convert[uint16](&variant); assert.True(t, ok) {
		assert.Equal(t, uint16(42), value)
	}
	if value, ok := Convert[float64](&variant); assert.True(t, ok) {
		assert.Equal(t, float64(42), value)
	}
	if value, ok := Convert[string](&variant); assert.True(t, ok) {
		assert.Equal(t, "42", value)
	}
	if value, ok := Convert[bool](&variant); assert.True(t, ok) {
		assert.True(t, value)
	}
}

func TestConvertBool(t *testing.T) {
	variant := ole.NewVariant(ole.VT_BOOL, -1) // VARIANT_TRUE

	if value, ok := Convert[bool](&variant); assert.True(t, ok) {
		assert.True(t, value)
	}

	variant = ole.NewVariant(ole.VT_BOOL, 0)
	if value, ok := Convert[bool](&variant); assert.True(t, ok) {
		assert.False(t, value)
	}
}

func TestConvertFloat(t *testing.T) {
	variant := newFloat64Variant(2.5)

	if value, ok := Convert[float64](variant); assert.True(t, ok) {
		assert.Equal(t, 2.5, value)
	}
	if value, ok := Convert[float32](variant); assert.True(t, ok) {
		assert.Equal(t, float32(2.5), value)
	}

	// Fractional values do not silently truncate into integer targets
	_, ok := Convert[int32](variant)
	assert.False(t, ok)

	whole := newFloat64Variant(8)
	if value, ok := Convert[int32](whole); assert.True(t, ok) {
		assert.Equal(t, int32(8), value)
	}
}

// Exactly 2^63 and 2^64 are representable float64 values sitting one past
// the integer ranges; converting them must be absent, not a wrapped value.
func TestConvertFloatBoundaries(t *testing.T) {
	twoPow63 := newFloat64Variant(math.Ldexp(1, 63))
	if _, ok := Convert[int64](twoPow63); ok {
		t.Fatal("expected absent for 2^63 into int64")
	}
	if value, ok := Convert[uint64](twoPow63); assert.True(t, ok) {
		assert.Equal(t, uint64(1)<<63, value)
	}

	twoPow64 := newFloat64Variant(math.Ldexp(1, 64))
	if _, ok := Convert[uint64](twoPow64); ok {
		t.Fatal("expected absent for 2^64 into uint64")
	}

	// The lower bound -2^63 is exactly representable and in range
	minInt64 := newFloat64Variant(math.Ldexp(-1, 63))
	if value, ok := Convert[int64](minInt64); assert.True(t, ok) {
		assert.Equal(t, int64(math.MinInt64), value)
	}
	if _, ok := Convert[int64](newFloat64Variant(math.Ldexp(-1, 64))); ok {
		t.Fatal("expected absent for -2^64 into int64")
	}
}

// CIM uint64 and sint64 properties arrive as BSTR; numeric targets must
// still be reachable from them.
func TestConvertNumericText(t *testing.T) {
	variant := newStringVariant("18446744073709551615")
	defer ole.VariantClear(variant)

	if value, ok := Convert[uint64](variant); assert.True(t, ok) {
		assert.Equal(t, uint64(math.MaxUint64), value)
	}

	// Too large for a signed target
	_, ok := Convert[int64](variant)
	assert.False(t, ok)
}

// Mismatched tags and out-of-range casts yield absent, never a panic or an
// error value.
func TestConvertMismatchIsAbsent(t *testing.T) {
	null := ole.NewVariant(ole.VT_NULL, 0)
	if _, ok := Convert[int32](&null); ok {
		t.Fatal("expected absent for null variant")
	}
	if _, ok := Convert[string](&null); ok {
		t.Fatal("expected absent for null variant")
	}
	if _, ok := Convert[[]int32](&null); ok {
		t.Fatal("expected absent for null variant")
	}

	text := newStringVariant("not a number")
	defer ole.VariantClear(text)
	if _, ok := Convert[int32](text); ok {
		t.Fatal("expected absent for non-numeric text")
	}

	overflow := ole.NewVariant(ole.VT_I4, 300)
	if _, ok := Convert[int8](&overflow); ok {
		t.Fatal("expected absent for overflowing cast")
	}

	negative := ole.NewVariant(ole.VT_I4, -5)
	if _, ok := Convert[uint32](&negative); ok {
		t.Fatal("expected absent for negative value into unsigned target")
	}
}

func TestConvertTextRoundTrip(t *testing.T) {
	testCases := []string{
		"",
		"Intel(R) Core(TM) i7",
		"hello world",
		"smörgåsbord 世界",
	}

	for _, tc := range testCases {
		variant := newStringVariant(tc)

		narrow, ok := Convert[string](variant)
		assert.True(t, ok)
		assert.Equal(t, tc, narrow)

		wide, ok := Convert[WideString](variant)
		assert.True(t, ok)
		assert.Equal(t, tc, wide.String())

		ole.VariantClear(variant)
	}
}

func TestConvertScalarArray(t *testing.T) {
	variant := newInt32ArrayVariant(t, []int32{3, 1, 2})
	defer ole.VariantClear(variant)

	if values, ok := Convert[[]int32](variant); assert.True(t, ok) {
		assert.Equal(t, []int32{3, 1, 2}, values)
	}

	// Element-wise widening works through the same path
	if values, ok := Convert[[]int64](variant); assert.True(t, ok) {
		assert.Equal(t, []int64{3, 1, 2}, values)
	}
}

func TestConvertEmptyArrayIsPresent(t *testing.T) {
	variant := newInt32ArrayVariant(t, nil)
	defer ole.VariantClear(variant)

	values, ok := Convert[[]int32](variant)
	assert.True(t, ok)
	assert.Len(t, values, 0)
	assert.NotNil(t, values)
}

func TestConvertArrayNeverPartial(t *testing.T) {
	variant := newInt32ArrayVariant(t, []int32{1, 300, 2})
	defer ole.VariantClear(variant)

	// 300 does not fit into int8, so the whole conversion is absent
	values, ok := Convert[[]int8](variant)
	assert.False(t, ok)
	assert.Nil(t, values)
}

func TestConvertStringArray(t *testing.T) {
	source := []string{"first", "second", "third"}
	variant := newStringArrayVariant(t, source)
	defer ole.VariantClear(variant)

	values, ok := Convert[[]string](variant)
	assert.True(t, ok)
	assert.Equal(t, source, values)

	wide, ok := Convert[[]WideString](variant)
	assert.True(t, ok)
	if assert.Len(t, wide, len(source)) {
		for i := range source {
			assert.Equal(t, source[i], wide[i].String())
		}
	}

	// A scalar-array tag is not a text array
	numbers := newInt32ArrayVariant(t, []int32{1, 2})
	defer ole.VariantClear(numbers)
	_, ok = Convert[[]string](numbers)
	assert.False(t, ok)
}

func TestConvertDateToText(t *testing.T) {
	moment := time.Date(2024, 1, 15, 9, 30, 42, 0, time.UTC)

	text, ok := toString(moment)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-15T09:30:42Z", text)
}

func TestConvertTime(t *testing.T) {
	variant := newStringVariant("20240115093042.125000+060")
	defer ole.VariantClear(variant)

	value, ok := Convert[time.Time](variant)
	assert.True(t, ok)
	assert.True(t, value.Equal(time.Date(2024, 1, 15, 8, 30, 42, 125000000, time.UTC)))
}

func TestParseCIMDatetime(t *testing.T) {
	testCases := []struct {
		name    string
		value   string
		wantErr bool
		want    time.Time
	}{
		{
			name:  "positive offset",
			value: "20240115093042.125000+060",
			want:  time.Date(2024, 1, 15, 8, 30, 42, 125000000, time.UTC),
		},
		{
			name:  "negative offset",
			value: "19991231235959.000001-300",
			want:  time.Date(2000, 1, 1, 4, 59, 59, 1000, time.UTC),
		},
		{
			name:    "interval wildcards",
			value:   "********093042.125000+060",
			wantErr: true,
		},
		{
			name:    "truncated",
			value:   "20240115",
			wantErr: true,
		},
		{
			name:    "missing sign",
			value:   "20240115093042.125000x060",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseCIMDatetime(tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, parsed.Equal(tc.want), "got %v, want %v", parsed, tc.want)
		})
	}
}
