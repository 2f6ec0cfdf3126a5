//go:build windows
// +build windows

package wmipp

import (
	"reflect"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/mitchellh/mapstructure"
	log "github.com/sonodima/wmipp/logger"
	"golang.org/x/sys/windows"
)

// Decode unmarshals the record's properties into the given struct pointer.
//
// Field names are matched against WMI property names; a `wmi` tag overrides
// the name, and `wmi:"-"` skips the field:
//
//	type win32Volume struct {
//		DriveLetter string
//		SizeBytes   uint64 `wmi:"Capacity"`
//		private     int    `wmi:"-"`
//	}
//
// Null properties leave the destination field at its zero value.  CIM
// datetime strings decode into time.Time fields.
func (o *Object) Decode(dst interface{}) error {
	value := reflect.ValueOf(dst)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		log.Errorf("Unsupported decode destination, dstType=%v", reflect.TypeOf(dst))
		return windows.ERROR_INVALID_PARAMETER
	}

	names, err := o.Properties()
	if err != nil {
		return err
	}

	properties := make(map[string]interface{}, len(names))
	for _, name := range names {
		variant, err := o.Property(name)
		if err != nil {
			return err
		}
		property := variantDecodeValue(variant)
		ole.VariantClear(variant)
		if property == nil {
			// Null or unsupported shape: leave the field at its zero value
			continue
		}
		properties[name] = property
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       cimDatetimeHook,
		Result:           dst,
		TagName:          "wmi",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(properties)
}

// Query executes a WQL query and decodes every result record into a T.
//
//	processors, err := wmipp.Query[Win32_Processor](session, "SELECT * FROM Win32_Processor")
func Query[T any](session *Session, query string) ([]T, error) {
	result, err := session.ExecuteQuery(query)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	items := make([]T, 0, result.Count())
	for _, object := range result.Objects() {
		var item T
		if err := object.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// variantDecodeValue extracts a decode-friendly Go value from a property
// variant.  Arrays come back as []string or []interface{}; the weakly typed
// decoder coerces them into the destination slice element type.
func variantDecodeValue(variant *ole.VARIANT) interface{} {
	switch {
	case variant.VT == ole.VT_NULL || variant.VT == ole.VT_EMPTY:
		return nil
	case variant.VT == ole.VT_ARRAY|ole.VT_BSTR:
		strings, _ := variantStrings(variant)
		return strings
	case variant.VT&ole.VT_ARRAY != 0:
		array := variant.ToArray()
		if array == nil || array.Array == nil {
			return nil
		}
		return array.ToValueArray()
	default:
		return variantScalar(variant)
	}
}

// cimDatetimeHook converts CIM datetime strings into time.Time while
// decoding.  Interval values and malformed strings fall through unchanged so
// the decoder reports the mismatch.
func cimDatetimeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	if parsed, err := parseCIMDatetime(data.(string)); err == nil {
		return parsed, nil
	}
	return data, nil
}
