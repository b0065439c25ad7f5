// Package hid reads button reports from a USB keypad used as a remote for
// the picture renderer.
package hid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/pleimann/multipicture/internal/logging"
	"github.com/pleimann/multipicture/internal/utils"
)

// ErrClosed is returned by reads on a closed device.
var ErrClosed = errors.New("device closed")

// Device is an open connection to the keypad.
type Device struct {
	vendorID  uint16
	productID uint16
	device    *hid.Device
	mu        sync.Mutex
	closed    bool
}

// NewDevice opens the first interface of the keypad that can be opened.
func NewDevice(vendorID, productID uint16) (*Device, error) {
	devices := hid.Enumerate(vendorID, productID)
	if len(devices) == 0 {
		if len(hid.Enumerate(0, 0)) == 0 {
			return nil, fmt.Errorf("no HID devices found on system - check USB connection")
		}
		return nil, fmt.Errorf("no device found with VendorID=0x%04X, ProductID=0x%04X\n"+
			"  Run '%s devices' to see available devices",
			vendorID, productID, utils.ExecutableName())
	}

	dev, err := openFirst(devices)
	if err != nil {
		return nil, fmt.Errorf("failed to open device 0x%04X:0x%04X (%d interfaces): %w\n"+
			"  This may be a permissions issue; check the udev rules for the device",
			vendorID, productID, len(devices), err)
	}
	return &Device{vendorID: vendorID, productID: productID, device: dev}, nil
}

// openFirst tries each interface in turn. Composite devices expose several
// and not all of them can be opened.
func openFirst(devices []hid.DeviceInfo) (*hid.Device, error) {
	var lastErr error
	for _, info := range devices {
		dev, err := info.Open()
		if err == nil {
			return dev, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.device != nil {
		return d.device.Close()
	}
	return nil
}

// ReadEvents reads reports until ctx is done or the device fails. Reports
// that do not parse are skipped.
func (d *Device) ReadEvents(ctx context.Context, events chan<- Event) error {
	log := logging.For("hid")
	buf := make([]byte, 64)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.mu.Lock()
		if d.closed || d.device == nil {
			d.mu.Unlock()
			return ErrClosed
		}
		dev := d.device
		d.mu.Unlock()

		n, err := dev.Read(buf)
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			continue
		}

		event, err := ParseEvent(buf[:n])
		if err != nil {
			log.Debug("ignoring report", "bytes", n, "error", err)
			continue
		}

		select {
		case events <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Reconnect closes the current handle, if any, and opens the keypad again.
func (d *Device) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Close()
		d.device = nil
	}
	d.closed = false

	devices := hid.Enumerate(d.vendorID, d.productID)
	if len(devices) == 0 {
		return fmt.Errorf("device not found")
	}
	dev, err := openFirst(devices)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	d.device = dev
	return nil
}

// WaitForDevice polls until the keypad can be opened again.
func (d *Device) WaitForDevice(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Reconnect(); err == nil {
				return nil
			}
		}
	}
}

// Run reads events and reconnects after the keypad is unplugged, until ctx
// is done.
func (d *Device) Run(ctx context.Context, events chan<- Event, pollInterval time.Duration) error {
	log := logging.For("hid")
	for {
		err := d.ReadEvents(ctx, events)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("keypad disconnected, waiting for it to return", "error", err)
		if err := d.WaitForDevice(ctx, pollInterval); err != nil {
			return err
		}
		log.Info("keypad reconnected")
	}
}
