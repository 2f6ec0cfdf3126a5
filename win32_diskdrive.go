//go:build windows
// +build windows

package wmipp

import (
	log "github.com/sonodima/wmipp/logger"
)

// Win32_DiskDrive WMI class
type Win32_DiskDrive struct {
	BytesPerSector    uint32
	Capabilities      []uint16
	Caption           string
	DeviceID          string
	FirmwareRevision  string
	Index             uint32
	InterfaceType     string
	Manufacturer      string
	MediaType         string
	Model             string
	Name              string
	Partitions        uint32
	PNPDeviceID       string
	SectorsPerTrack   uint32
	SerialNumber      string
	Size              uint64
	Status            string
	TotalCylinders    uint64
	TotalHeads        uint32
	TotalSectors      uint64
	TotalTracks       uint64
	TracksPerCylinder uint32
}

// GetWin32DiskDrive enumerates this host's Win32_DiskDrive objects
func GetWin32DiskDrive(session *Session) (drives []Win32_DiskDrive, err error) {
	log.Trace(">>>>> GetWin32DiskDrive")
	defer log.Trace("<<<<< GetWin32DiskDrive")

	return Query[Win32_DiskDrive](session, "SELECT * FROM Win32_DiskDrive")
}
