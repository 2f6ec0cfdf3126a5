//go:build windows
// +build windows

package wmipp

import (
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	log "github.com/sonodima/wmipp/logger"
	"golang.org/x/sys/windows"
)

// Object wraps a single WMI record (IWbemClassObject) obtained from a query
// result and provides access to its properties.  Property lookups always go
// to the live record; nothing is cached.
//
// An Object holds a reference on its originating Session, so the underlying
// connection stays alive until the Object is closed.
type Object struct {
	session *Session
	raw     *ole.IUnknown
	closed  int32
}

func newObject(session *Session, raw *ole.IUnknown) *Object {
	session.addRef()
	return &Object{session: session, raw: raw}
}

// Close releases the underlying record and drops the Object's reference on
// its Session.  Safe to call more than once.
func (o *Object) Close() {
	if !atomic.CompareAndSwapInt32(&o.closed, 0, 1) {
		return
	}
	if o.raw != nil {
		o.raw.Release()
	}
	o.session.release()
}

// Property fetches the named property as a raw variant.  The caller owns the
// returned variant and must release it with ole.VariantClear.
func (o *Object) Property(name string) (*ole.VARIANT, error) {
	variant, _, err := o.get(name)
	return variant, err
}

// PropertyType returns the declared CIM type of the named property.
func (o *Object) PropertyType(name string) (CIMType, error) {
	variant, cimType, err := o.get(name)
	if err != nil {
		return CIM_ILLEGAL, err
	}
	ole.VariantClear(variant)
	return cimType, nil
}

// Properties returns the non-system property names defined on the record.
func (o *Object) Properties() ([]string, error) {
	var names *ole.SafeArray
	vtable := (*IWbemClassObjectVtbl)(unsafe.Pointer(o.raw.RawVTable))
	hres, _, _ := syscall.Syscall6(vtable.GetNames, 5, // Call the IWbemClassObject::GetNames method
		uintptr(unsafe.Pointer(o.raw)),
		uintptr(0),
		uintptr(WBEM_FLAG_ALWAYS|WBEM_FLAG_NONSYSTEM_ONLY),
		uintptr(0),
		uintptr(unsafe.Pointer(&names)),
		uintptr(0))
	if FAILED(hres) {
		return nil, fmt.Errorf("failed to get property names: %w", ole.NewError(hres))
	}

	conversion := ole.SafeArrayConversion{Array: names}
	defer conversion.Release()
	return conversion.ToStringArray(), nil
}

// Equal reports whether two Objects wrap structurally equal records,
// ignoring the origin server/namespace and any qualifiers.  Two nil-record
// Objects are equal; nil vs non-nil is not.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.raw == nil || other.raw == nil {
		return o.raw == other.raw
	}

	vtable := (*IWbemClassObjectVtbl)(unsafe.Pointer(o.raw.RawVTable))
	hres, _, _ := syscall.Syscall(vtable.CompareTo, 3, // Call the IWbemClassObject::CompareTo method
		uintptr(unsafe.Pointer(o.raw)),
		uintptr(WBEM_FLAG_IGNORE_OBJECT_SOURCE|WBEM_FLAG_IGNORE_QUALIFIERS),
		uintptr(unsafe.Pointer(other.raw)))
	return hres == WBEM_S_SAME
}

// GetProperty retrieves the named property from the record, converted to T.
// A failed fetch or a failed conversion both yield an absent result; see
// Convert for the supported targets.  When T is *ole.VARIANT the caller
// takes ownership of the variant and must release it with ole.VariantClear.
func GetProperty[T any](object *Object, name string) (T, bool) {
	var zero T

	variant, err := object.Property(name)
	if err != nil {
		return zero, false
	}

	value, ok := Convert[T](variant)
	if _, passthrough := any(value).(*ole.VARIANT); !passthrough {
		ole.VariantClear(variant)
	}
	return value, ok
}

func (o *Object) get(name string) (*ole.VARIANT, CIMType, error) {
	if atomic.LoadInt32(&o.closed) != 0 || o.raw == nil {
		return nil, CIM_ILLEGAL, fmt.Errorf("failed to get property %q: object is closed", name)
	}

	var variant ole.VARIANT
	var cimType CIMType
	var flavor uint32
	nameUTF16, err := windows.UTF16FromString(name)
	if err != nil {
		return nil, CIM_ILLEGAL, fmt.Errorf("failed to get property %q: %w", name, err)
	}
	vtable := (*IWbemClassObjectVtbl)(unsafe.Pointer(o.raw.RawVTable))
	hres, _, _ := syscall.Syscall6(vtable.Get, 6, // Call the IWbemClassObject::Get method
		uintptr(unsafe.Pointer(o.raw)),
		uintptr(unsafe.Pointer(&nameUTF16[0])), // LPCWSTR wszName  - Name of the desired property
		uintptr(0),                             // long    lFlags   - Reserved, must be 0
		uintptr(unsafe.Pointer(&variant)),      // VARIANT *pVal    - Returned property value
		uintptr(unsafe.Pointer(&cimType)),      // CIMTYPE *pType   - Declared CIM type
		uintptr(unsafe.Pointer(&flavor)))       // long    *plFlavor - Property origin
	if FAILED(hres) {
		err := ole.NewError(hres)
		if hres != WBEM_E_NOT_FOUND {
			log.Tracef("Property fetch failed, name=%v, err=%v", name, err)
		}
		return nil, CIM_ILLEGAL, fmt.Errorf("failed to get property %q: %w", name, err)
	}

	return &variant, cimType, nil
}
