//go:build windows
// +build windows

package wmipp

import (
	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// WMI class and interface GUIDs
var (
	CLSID_WbemLocator    = ole.NewGUID("4590f811-1d3a-11d0-891f-00aa004b2e24")
	IID_IWbemLocator     = ole.NewGUID("dc12a687-737f-11cf-884d-00aa004b2e24")
	IID_IWbemClassObject = ole.NewGUID("dc12a681-737f-11cf-884d-00aa004b2e24")
)

// Lazy load the ole32.dll APIs
var (
	ole32                 = windows.NewLazySystemDLL("ole32.dll")
	procCoSetProxyBlanket = ole32.NewProc("CoSetProxyBlanket")
)

// HRESULT values
const (
	S_OK                     = 0
	S_FALSE                  = 1
	WBEM_S_NO_ERROR          = 0
	WBEM_S_FALSE             = 1
	WBEM_S_SAME              = 0
	WBEM_S_DIFFERENT         = 0x40003
	WBEM_E_CRITICAL_ERROR    = 0x8004100A
	WBEM_E_NOT_SUPPORTED     = 0x8004100C
	WBEM_E_INVALID_NAMESPACE = 0x8004100E
	WBEM_E_INVALID_CLASS     = 0x80041010
	WBEM_E_NOT_FOUND         = 0x80041002
)

// CIMType identifies the declared CIM data type of a class property
type CIMType uint32

const (
	CIM_ILLEGAL    CIMType = 0xFFF
	CIM_EMPTY      CIMType = 0
	CIM_SINT8      CIMType = 16
	CIM_UINT8      CIMType = 17
	CIM_SINT16     CIMType = 2
	CIM_UINT16     CIMType = 18
	CIM_SINT32     CIMType = 3
	CIM_UINT32     CIMType = 19
	CIM_SINT64     CIMType = 20
	CIM_UINT64     CIMType = 21
	CIM_REAL32     CIMType = 4
	CIM_REAL64     CIMType = 5
	CIM_BOOLEAN    CIMType = 11
	CIM_STRING     CIMType = 8
	CIM_DATETIME   CIMType = 101
	CIM_REFERENCE  CIMType = 102
	CIM_CHAR16     CIMType = 103
	CIM_OBJECT     CIMType = 13
	CIM_FLAG_ARRAY CIMType = 0x2000
)

// IsArray reports whether the CIM type describes an array property
func (t CIMType) IsArray() bool {
	return t&CIM_FLAG_ARRAY != 0
}

// Element returns the element type of an array CIM type
func (t CIMType) Element() CIMType {
	return t &^ CIM_FLAG_ARRAY
}

// WBEM_GENERIC_FLAG_TYPE flags passed to IWbemServices methods
type WBEM_GENERIC_FLAG_TYPE uint32

const (
	WBEM_FLAG_RETURN_WBEM_COMPLETE WBEM_GENERIC_FLAG_TYPE = 0x0
	WBEM_FLAG_RETURN_IMMEDIATELY   WBEM_GENERIC_FLAG_TYPE = 0x10
	WBEM_FLAG_FORWARD_ONLY         WBEM_GENERIC_FLAG_TYPE = 0x20
	WBEM_FLAG_NO_ERROR_OBJECT      WBEM_GENERIC_FLAG_TYPE = 0x40
	WBEM_FLAG_SEND_STATUS          WBEM_GENERIC_FLAG_TYPE = 0x80
	WBEM_FLAG_ENSURE_LOCATABLE     WBEM_GENERIC_FLAG_TYPE = 0x100
	WBEM_FLAG_DIRECT_READ          WBEM_GENERIC_FLAG_TYPE = 0x200
)

// WBEM_TIMEOUT_TYPE values for the IEnumWbemClassObject::Next timeout
type WBEM_TIMEOUT_TYPE uint32

const (
	WBEM_NO_WAIT  WBEM_TIMEOUT_TYPE = 0
	WBEM_INFINITE WBEM_TIMEOUT_TYPE = 0xFFFFFFFF
)

// WBEM_CONDITION_FLAG_TYPE flags used with the IWbemClassObject::GetNames method
type WBEM_CONDITION_FLAG_TYPE uint32

const (
	WBEM_FLAG_ALWAYS         WBEM_CONDITION_FLAG_TYPE = 0
	WBEM_FLAG_ONLY_IF_TRUE   WBEM_CONDITION_FLAG_TYPE = 0x1
	WBEM_FLAG_ONLY_IF_FALSE  WBEM_CONDITION_FLAG_TYPE = 0x2
	WBEM_FLAG_KEYS_ONLY      WBEM_CONDITION_FLAG_TYPE = 0x4
	WBEM_FLAG_REFS_ONLY      WBEM_CONDITION_FLAG_TYPE = 0x8
	WBEM_FLAG_LOCAL_ONLY     WBEM_CONDITION_FLAG_TYPE = 0x10
	WBEM_FLAG_SYSTEM_ONLY    WBEM_CONDITION_FLAG_TYPE = 0x30
	WBEM_FLAG_NONSYSTEM_ONLY WBEM_CONDITION_FLAG_TYPE = 0x40
)

// WBEM_COMPARISON_FLAG flags used with the IWbemClassObject::CompareTo method
type WBEM_COMPARISON_FLAG uint32

const (
	WBEM_COMPARISON_INCLUDE_ALL     WBEM_COMPARISON_FLAG = 0
	WBEM_FLAG_IGNORE_QUALIFIERS     WBEM_COMPARISON_FLAG = 0x1
	WBEM_FLAG_IGNORE_OBJECT_SOURCE  WBEM_COMPARISON_FLAG = 0x2
	WBEM_FLAG_IGNORE_DEFAULT_VALUES WBEM_COMPARISON_FLAG = 0x4
	WBEM_FLAG_IGNORE_CLASS          WBEM_COMPARISON_FLAG = 0x8
	WBEM_FLAG_IGNORE_CASE           WBEM_COMPARISON_FLAG = 0x10
	WBEM_FLAG_IGNORE_FLAVOR         WBEM_COMPARISON_FLAG = 0x20
)

// Authentication level constants for CoSetProxyBlanket
const (
	RPC_C_AUTHN_LEVEL_DEFAULT       = 0
	RPC_C_AUTHN_LEVEL_NONE          = 1
	RPC_C_AUTHN_LEVEL_CONNECT       = 2
	RPC_C_AUTHN_LEVEL_CALL          = 3
	RPC_C_AUTHN_LEVEL_PKT           = 4
	RPC_C_AUTHN_LEVEL_PKT_INTEGRITY = 5
	RPC_C_AUTHN_LEVEL_PKT_PRIVACY   = 6
)

// Impersonation level constants for CoSetProxyBlanket
const (
	RPC_C_IMP_LEVEL_DEFAULT     = 0
	RPC_C_IMP_LEVEL_ANONYMOUS   = 1
	RPC_C_IMP_LEVEL_IDENTIFY    = 2
	RPC_C_IMP_LEVEL_IMPERSONATE = 3
	RPC_C_IMP_LEVEL_DELEGATE    = 4
)

// Authentication service constants for CoSetProxyBlanket
const (
	RPC_C_AUTHN_NONE    = 0
	RPC_C_AUTHN_DEFAULT = 0xFFFFFFFF
	RPC_C_AUTHZ_NONE    = 0
)

// COLE_DEFAULT_PRINCIPAL selects the default principal name for the proxy
const COLE_DEFAULT_PRINCIPAL = ^uintptr(0)

// EOLE_AUTHENTICATION_CAPABILITIES specifies capabilities in CoSetProxyBlanket
type EOLE_AUTHENTICATION_CAPABILITIES uint32

const (
	EOAC_NONE             EOLE_AUTHENTICATION_CAPABILITIES = 0
	EOAC_MUTUAL_AUTH      EOLE_AUTHENTICATION_CAPABILITIES = 0x1
	EOAC_STATIC_CLOAKING  EOLE_AUTHENTICATION_CAPABILITIES = 0x20
	EOAC_DYNAMIC_CLOAKING EOLE_AUTHENTICATION_CAPABILITIES = 0x40
	EOAC_DEFAULT          EOLE_AUTHENTICATION_CAPABILITIES = 0x800
)

// IWbemLocatorVtbl is the IWbemLocator COM virtual table
type IWbemLocatorVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	ConnectServer  uintptr
}

// IWbemServicesVtbl is the IWbemServices COM virtual table
type IWbemServicesVtbl struct {
	QueryInterface             uintptr
	AddRef                     uintptr
	Release                    uintptr
	OpenNamespace              uintptr
	CancelAsyncCall            uintptr
	QueryObjectSink            uintptr
	GetObject                  uintptr
	GetObjectAsync             uintptr
	PutClass                   uintptr
	PutClassAsync              uintptr
	DeleteClass                uintptr
	DeleteClassAsync           uintptr
	CreateClassEnum            uintptr
	CreateClassEnumAsync       uintptr
	PutInstance                uintptr
	PutInstanceAsync           uintptr
	DeleteInstance             uintptr
	DeleteInstanceAsync        uintptr
	CreateInstanceEnum         uintptr
	CreateInstanceEnumAsync    uintptr
	ExecQuery                  uintptr
	ExecQueryAsync             uintptr
	ExecNotificationQuery      uintptr
	ExecNotificationQueryAsync uintptr
	ExecMethod                 uintptr
	ExecMethodAsync            uintptr
}

// IEnumWbemClassObjectVtbl is the IEnumWbemClassObject COM virtual table
type IEnumWbemClassObjectVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	Reset          uintptr
	Next           uintptr
	NextAsync      uintptr
	Clone          uintptr
	Skip           uintptr
}

// IWbemClassObjectVtbl is the IWbemClassObject COM virtual table
type IWbemClassObjectVtbl struct {
	QueryInterface          uintptr
	AddRef                  uintptr
	Release                 uintptr
	GetQualifierSet         uintptr
	Get                     uintptr
	Put                     uintptr
	Delete                  uintptr
	GetNames                uintptr
	BeginEnumeration        uintptr
	Next                    uintptr
	EndEnumeration          uintptr
	GetPropertyQualifierSet uintptr
	Clone                   uintptr
	GetObjectText           uintptr
	SpawnDerivedClass       uintptr
	SpawnInstance           uintptr
	CompareTo               uintptr
	GetPropertyOrigin       uintptr
	InheritsFrom            uintptr
	GetMethod               uintptr
	PutMethod               uintptr
	DeleteMethod            uintptr
	BeginMethodEnumeration  uintptr
	NextMethod              uintptr
	EndMethodEnumeration    uintptr
	GetMethodQualifierSet   uintptr
	GetMethodOrigin         uintptr
}

// SUCCEEDED function returns true if HRESULT succeeds, else false
func SUCCEEDED(hresult uintptr) bool {
	return int32(hresult) >= 0
}

// FAILED function returns true if HRESULT fails, else false
func FAILED(hresult uintptr) bool {
	return int32(hresult) < 0
}
