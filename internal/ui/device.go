package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// DeviceInfo contains information about a HID device for display
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
}

// SelectDevice asks the user to pick a keypad. It returns nil when the
// selection was cancelled.
func SelectDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices to select from")
	}

	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		label := fmt.Sprintf("%s  %s", KeyStyle.Render(deviceID(d.VendorID, d.ProductID)), formatDeviceName(d))
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	ok, err := runSelect("Select HID Device", "Choose the keypad that scrolls the screens (esc to cancel)", options, &selected)
	if err != nil || !ok {
		return nil, err
	}
	return &devices[selected], nil
}

func deviceID(vendorID, productID uint16) string {
	return fmt.Sprintf("0x%04X:0x%04X", vendorID, productID)
}

// formatDeviceName creates a readable name for the device
func formatDeviceName(d DeviceInfo) string {
	name := d.Product
	if name == "" {
		name = "Unknown Device"
	}
	if d.Manufacturer != "" {
		name = d.Manufacturer + " " + name
	}
	return name
}

// PrintDeviceList displays a styled list of HID devices
func PrintDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println(Warning("No HID devices found"))
		return
	}

	fmt.Println()
	fmt.Println(Title("HID Devices"))
	fmt.Println(Muted(fmt.Sprintf("Found %d device(s)", len(devices))))
	fmt.Println()

	for _, d := range devices {
		printDevice(d)
	}
	fmt.Println()
}

func printDevice(d DeviceInfo) {
	idLine := KeyStyle.Render("  " + deviceID(d.VendorID, d.ProductID))

	name := d.Product
	if name == "" {
		name = "Unknown Device"
	}

	var details []string
	details = append(details, ItemStyle.Render(name))
	if d.Manufacturer != "" {
		details = append(details, DetailStyle.Render("by "+d.Manufacturer))
	}

	fmt.Printf("%s  %s\n", idLine, strings.Join(details, " "))
}

// PrintDeviceUpdated shows a success message after updating device config
func PrintDeviceUpdated(configPath string, vendorID, productID uint16) {
	fmt.Println()
	fmt.Println(Success("Device configuration updated"))
	fmt.Println()
	Field("Config", configPath)
	Field("Device", deviceID(vendorID, productID))
	fmt.Println()
}
