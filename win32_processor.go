//go:build windows
// +build windows

package wmipp

import (
	log "github.com/sonodima/wmipp/logger"
)

// Win32_Processor WMI class
type Win32_Processor struct {
	Architecture              uint16
	Caption                   string
	CurrentClockSpeed         uint32
	DeviceID                  string
	Family                    uint16
	L2CacheSize               uint32
	L3CacheSize               uint32
	LoadPercentage            uint16
	Manufacturer              string
	MaxClockSpeed             uint32
	Name                      string
	NumberOfCores             uint32
	NumberOfLogicalProcessors uint32
	ProcessorId               string
	SocketDesignation         string
	Status                    string
}

// GetWin32Processor enumerates this host's Win32_Processor objects
func GetWin32Processor(session *Session) (processors []Win32_Processor, err error) {
	log.Trace(">>>>> GetWin32Processor")
	defer log.Trace("<<<<< GetWin32Processor")

	return Query[Win32_Processor](session, "SELECT * FROM Win32_Processor")
}
