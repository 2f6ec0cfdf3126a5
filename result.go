//go:build windows
// +build windows

package wmipp

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	log "github.com/sonodima/wmipp/logger"
)

// ErrOutOfRange is returned by QueryResult.At for indexes past the end of
// the result set.  Unlike a failed property conversion, indexing past the
// end is a contract violation, so it surfaces as an error instead of an
// absent value.
var ErrOutOfRange = errors.New("index out of range")

// QueryResult owns the ordered collection of Objects produced by a query.
// The source enumerator is drained once, at construction; the collection is
// immutable afterwards and indexes stay stable for its whole lifetime.
type QueryResult struct {
	session *Session
	objects []*Object
	closed  int32
}

// newQueryResult drains the enumerator into a fresh result set.  A nil
// enumerator (query construction failed upstream) yields an empty set.
func newQueryResult(session *Session, enumerator *ole.IUnknown) *QueryResult {
	result := &QueryResult{session: session}
	session.addRef()
	if enumerator != nil {
		result.populate(enumerator)
	}
	return result
}

// populate pulls one record at a time until the enumerator reports
// exhaustion or failure.  A failed pull just terminates population; whatever
// was enumerated before it stays in the set.
func (qr *QueryResult) populate(enumerator *ole.IUnknown) {
	vtable := (*IEnumWbemClassObjectVtbl)(unsafe.Pointer(enumerator.RawVTable))
	for count := 0; ; count++ {
		var record *ole.IUnknown
		var returned uint32
		hres, _, _ := syscall.Syscall6(vtable.Next, 5, // Call the IEnumWbemClassObject::Next method
			uintptr(unsafe.Pointer(enumerator)),
			uintptr(WBEM_INFINITE),
			uintptr(1),
			uintptr(unsafe.Pointer(&record)),
			uintptr(unsafe.Pointer(&returned)),
			uintptr(0))
		if FAILED(hres) || returned == 0 {
			if (hres != WBEM_S_NO_ERROR) && (hres != WBEM_S_FALSE) {
				log.Tracef("Enumeration stopped early, count=%v, hres=%08Xh", count, hres)
			}
			break
		}

		qr.objects = append(qr.objects, newObject(qr.session, record))
	}
}

// Count returns the number of Objects in the result set.
func (qr *QueryResult) Count() int {
	return len(qr.objects)
}

// At returns the Object at the given index.  The returned Object is borrowed
// from the result set and stays valid until the QueryResult is closed.
func (qr *QueryResult) At(index int) (*Object, error) {
	if index < 0 || index >= len(qr.objects) {
		return nil, fmt.Errorf("%w: %d with count %d", ErrOutOfRange, index, len(qr.objects))
	}
	return qr.objects[index], nil
}

// Objects returns the Objects in enumeration order.  The slice is a fresh
// copy on every call, so iterating it repeatedly yields the same sequence
// with no hidden state.
func (qr *QueryResult) Objects() []*Object {
	objects := make([]*Object, len(qr.objects))
	copy(objects, qr.objects)
	return objects
}

// Close releases every Object in the set and drops the reference on the
// originating Session.  Safe to call more than once.
func (qr *QueryResult) Close() {
	if !atomic.CompareAndSwapInt32(&qr.closed, 0, 1) {
		return
	}
	for _, object := range qr.objects {
		object.Close()
	}
	qr.session.release()
}

// FindProperty scans the result set in order and returns the first value of
// the named property that converts to T, skipping objects where it is
// absent.
func FindProperty[T any](result *QueryResult, name string) (T, bool) {
	for _, object := range result.objects {
		if value, ok := GetProperty[T](object, name); ok {
			return value, true
		}
	}

	var zero T
	return zero, false
}

// FindPropertyAt retrieves the named property from the object at the given
// index.  An out-of-range index yields an absent value, matching the
// conversion failure policy rather than the indexing contract of At.
func FindPropertyAt[T any](result *QueryResult, name string, index int) (T, bool) {
	if index < 0 || index >= len(result.objects) {
		var zero T
		return zero, false
	}
	return GetProperty[T](result.objects[index], name)
}
