//go:build windows
// +build windows

package wmipp

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	uuid "github.com/satori/go.uuid"
	log "github.com/sonodima/wmipp/logger"
	"golang.org/x/sys/windows"
)

// DefaultNamespace is the namespace used when Connect is called without a
// path argument.
const DefaultNamespace = "cimv2"

// Session owns a connection to one WMI namespace and executes WQL queries
// against it.
//
// The connection is reference counted: every QueryResult and Object derived
// from a Session holds its own reference, so closing the Session while
// derived objects are still in use does not tear the connection down.  The
// COM resources are released, in order (services, locator, COM library),
// exactly once, when the last reference is dropped.
//
// Connection state is read-only after Connect.  COM calls are serialized on
// an internal mutex, so a Session tolerates use from multiple goroutines,
// but same-goroutine usage is the preferred contract.  COM initialization
// counts are per-thread, so when the last reference is dropped from a
// different OS thread than the one Connect ran on, the balancing
// CoUninitialize lands on that thread instead; in the multithreaded
// apartment the mismatch only delays the initializing thread's COM cleanup
// to process exit.
type Session struct {
	id     string
	refs   int64
	closed int32

	mu             sync.Mutex
	comInitialized bool
	locator        *ole.IUnknown
	services       *ole.IUnknown
}

// Connect initializes COM and establishes a connection to the given WMI
// namespace under \\.\root\ ("cimv2" when omitted).  Multiple path
// components are joined with a backslash, so Connect("cimv2", "Security")
// targets \\.\root\cimv2\Security.  Every setup step that completed is
// unwound before an error is returned, so a failed Connect leaks no
// connection state.
func Connect(path ...string) (*Session, error) {
	namespace := DefaultNamespace
	if len(path) > 0 && path[0] != "" {
		namespace = strings.Join(path, `\`)
	}

	session := &Session{id: uuid.NewV4().String(), refs: 1}
	log.Tracef(">>>>> Connect, session=%v, namespace=%v", session.id, namespace)
	defer log.Trace("<<<<< Connect")

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Handle the case where the COM library is already initialized on this
	// thread: S_OK and S_FALSE both count as success and both require a
	// balancing CoUninitialize.
	session.comInitialized = true
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		session.comInitialized = false
		if oleCode, ok := err.(*ole.OleError); ok {
			switch oleCode.Code() {
			case S_OK, S_FALSE:
				session.comInitialized = true
			}
		}
		if !session.comInitialized {
			return nil, fmt.Errorf("failed to initialize com library: %w", err)
		}
	}

	locator, err := ole.CreateInstance(CLSID_WbemLocator, IID_IWbemLocator)
	if err != nil {
		session.uninitialize()
		return nil, fmt.Errorf("failed to create locator object: %w", err)
	}
	session.locator = locator

	// Connect to WMI through the IWbemLocator::ConnectServer method
	var services *ole.IUnknown
	namespaceUTF16, err := windows.UTF16FromString(`\\.\root\` + namespace)
	if err != nil {
		session.teardown()
		return nil, fmt.Errorf("failed to connect to wmi service: %w", err)
	}
	locatorVTable := (*IWbemLocatorVtbl)(unsafe.Pointer(session.locator.RawVTable))
	hres, _, _ := syscall.Syscall9(locatorVTable.ConnectServer, 9,
		uintptr(unsafe.Pointer(session.locator)),
		uintptr(unsafe.Pointer(&namespaceUTF16[0])),
		uintptr(0),
		uintptr(0),
		uintptr(0),
		uintptr(0),
		uintptr(0),
		uintptr(0),
		uintptr(unsafe.Pointer(&services)))
	if FAILED(hres) {
		session.teardown()
		return nil, fmt.Errorf("failed to connect to wmi service: %w", ole.NewError(hres))
	}
	session.services = services

	// Set the security levels on the services proxy so that queries run
	// with the caller's credentials.
	hres, _, _ = procCoSetProxyBlanket.Call(
		uintptr(unsafe.Pointer(session.services)),
		uintptr(RPC_C_AUTHN_DEFAULT),         // Authentication service
		uintptr(RPC_C_AUTHZ_NONE),            // Authorization service
		COLE_DEFAULT_PRINCIPAL,               // Server principal name
		uintptr(RPC_C_AUTHN_LEVEL_DEFAULT),   // Authentication level
		uintptr(RPC_C_IMP_LEVEL_IMPERSONATE), // Impersonation level
		uintptr(0),                           // Authentication info
		uintptr(EOAC_NONE))                   // Additional capabilities
	if FAILED(hres) {
		session.teardown()
		return nil, fmt.Errorf("failed to set proxy blanket: %w", ole.NewError(hres))
	}

	return session, nil
}

// ExecuteQuery submits a WQL query against the session's namespace and
// returns the fully populated result set.  The enumerator is requested with
// forward-only, return-immediately semantics and drained before this
// function returns.
func (s *Session) ExecuteQuery(query string) (*QueryResult, error) {
	log.Tracef(">>>>> ExecuteQuery, session=%v, query=%v", s.id, query)
	defer log.Trace("<<<<< ExecuteQuery")

	s.mu.Lock()
	defer s.mu.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if s.services == nil {
		return nil, fmt.Errorf("failed to execute wql query: session is closed")
	}

	// Use the IWbemServices pointer to send the WMI query
	var enumerator *ole.IUnknown
	languageUTF16, _ := windows.UTF16FromString("WQL")
	queryUTF16, err := windows.UTF16FromString(query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute wql query: %w", err)
	}
	servicesVTable := (*IWbemServicesVtbl)(unsafe.Pointer(s.services.RawVTable))
	hres, _, _ := syscall.Syscall6(servicesVTable.ExecQuery, 6, // Call the IWbemServices::ExecQuery method
		uintptr(unsafe.Pointer(s.services)),
		uintptr(unsafe.Pointer(&languageUTF16[0])),
		uintptr(unsafe.Pointer(&queryUTF16[0])),
		uintptr(WBEM_FLAG_FORWARD_ONLY|WBEM_FLAG_RETURN_IMMEDIATELY),
		uintptr(0),
		uintptr(unsafe.Pointer(&enumerator)))
	if FAILED(hres) {
		return nil, fmt.Errorf("failed to execute wql query: %w", ole.NewError(hres))
	}
	defer enumerator.Release()

	return newQueryResult(s, enumerator), nil
}

// Close drops the caller's reference on the Session.  The connection itself
// is torn down only once every derived QueryResult and Object has been
// closed as well.  Safe to call more than once.
func (s *Session) Close() {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		s.release()
	}
}

func (s *Session) addRef() {
	atomic.AddInt64(&s.refs, 1)
}

func (s *Session) release() {
	if atomic.AddInt64(&s.refs, -1) != 0 {
		return
	}

	log.Tracef("Tearing down wmi session, session=%v", s.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	s.teardown()
}

// teardown releases the service binding, the locator, and the COM library,
// in that order.
func (s *Session) teardown() {
	if s.services != nil {
		s.services.Release()
		s.services = nil
	}
	if s.locator != nil {
		s.locator.Release()
		s.locator = nil
	}
	s.uninitialize()
}

func (s *Session) uninitialize() {
	if s.comInitialized {
		ole.CoUninitialize()
		s.comInitialized = false
	}
}
