//go:build windows
// +build windows

package wmipp

import (
	"time"

	log "github.com/sonodima/wmipp/logger"
)

// Win32_OperatingSystem WMI class
type Win32_OperatingSystem struct {
	BootDevice              string
	BuildNumber             string
	Caption                 string
	CountryCode             string
	CSName                  string
	CurrentTimeZone         int16
	FreePhysicalMemory      uint64
	FreeVirtualMemory       uint64
	InstallDate             time.Time
	LastBootUpTime          time.Time
	LocalDateTime           time.Time
	Manufacturer            string
	MaxProcessMemorySize    uint64
	Name                    string
	NumberOfProcesses       uint32
	NumberOfUsers           uint32
	OSArchitecture          string
	OSType                  uint16
	SerialNumber            string
	ServicePackMajorVersion uint16
	ServicePackMinorVersion uint16
	SystemDirectory         string
	SystemDrive             string
	TotalVirtualMemorySize  uint64
	TotalVisibleMemorySize  uint64
	Version                 string
	WindowsDirectory        string
}

// GetWin32OperatingSystem enumerates this host's Win32_OperatingSystem object
func GetWin32OperatingSystem(session *Session) (operatingSystems []Win32_OperatingSystem, err error) {
	log.Trace(">>>>> GetWin32OperatingSystem")
	defer log.Trace("<<<<< GetWin32OperatingSystem")

	return Query[Win32_OperatingSystem](session, "SELECT * FROM Win32_OperatingSystem")
}
