package hid

import (
	"github.com/karalabe/hid"
)

// DeviceInfo describes one HID interface on the system.
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Path         string
	Manufacturer string
	Product      string
	SerialNumber string
	UsagePage    uint16
	Usage        uint16
}

// Supported reports whether HID enumeration works on this platform.
func Supported() bool {
	return hid.Supported()
}

// ListDevices returns every HID interface on the system.
func ListDevices() []DeviceInfo {
	devices := hid.Enumerate(0, 0)
	out := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = info(d)
	}
	return out
}

func info(d hid.DeviceInfo) DeviceInfo {
	return DeviceInfo{
		VendorID:     d.VendorID,
		ProductID:    d.ProductID,
		Path:         d.Path,
		Manufacturer: d.Manufacturer,
		Product:      d.Product,
		SerialNumber: d.Serial,
		UsagePage:    d.UsagePage,
		Usage:        d.Usage,
	}
}
