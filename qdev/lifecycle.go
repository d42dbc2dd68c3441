package qdev

import (
	"fmt"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"github.com/lalithsuresh/qdevcore/qdev/errors"
	"github.com/lalithsuresh/qdevcore/qdev/property"
)

// Init runs a Created device's kind.Init callback and, on success,
// registers its state descriptor (if any) with the configured migration
// registry and transitions it to Initialised. On failure the device is
// rolled back via Free and the error is returned wrapped in
// DeviceInitFailed.
func (m *Machine) Init(dev *Device) error {
	if dev.state != Created {
		return fmt.Errorf("device %q: cannot initialise from state %s", dev.kind.Name, dev.state)
	}

	if dev.kind.Init != nil {
		if err := dev.kind.Init(dev); err != nil {
			m.Free(dev)
			return &errors.DeviceInitFailed{Kind: dev.kind.Name, Err: err}
		}
	}

	if dev.kind.State != nil && m.migration != nil {
		if err := m.migration.Register(dev, dev.kind.State, dev.migrationAlias); err != nil {
			m.Free(dev)
			return &errors.DeviceInitFailed{Kind: dev.kind.Name, Err: err}
		}
	}

	dev.state = Initialised
	corelog.WithField("kind", dev.kind.Name).Debug("[lifecycle] device initialised")
	return nil
}

// InitOrAbort runs Init and terminates the process on failure, for
// boot-time device creation where there is no sensible way to continue
// with a partially assembled machine.
func (m *Machine) InitOrAbort(dev *Device) {
	if err := m.Init(dev); err != nil {
		corelog.Fatalf("[lifecycle] failed to initialise device %q: %v", dev.kind.Name, err)
	}
}

// Free tears an Initialised device down (recursively freeing its child
// buses depth-first, unregistering it from the migration registry,
// running kind.Exit, and releasing any property values that declare a
// Free callback) and, regardless of prior state, unlinks it from its
// parent bus.
func (m *Machine) Free(dev *Device) {
	if dev.state == Initialised {
		for _, b := range dev.childBuses {
			m.freeBus(b)
		}
		dev.childBuses = nil

		if m.migration != nil && dev.kind.State != nil {
			m.migration.Unregister(dev)
		}
		if dev.kind.Exit != nil {
			if err := dev.kind.Exit(dev); err != nil {
				corelog.WithField("kind", dev.kind.Name).Warnf("[lifecycle] exit callback failed: %v", err)
			}
		}
	}

	for _, p := range dev.kind.Properties {
		freeProp(dev, p)
	}
	for _, p := range dev.kind.BusKind.Properties {
		freeProp(dev, p)
	}

	if dev.parent != nil {
		dev.parent.removeChild(dev)
	}
	dev.optionBag = nil
	dev.props = nil
	dev.state = Unplugged

	m.ids.forget(dev)
	m.invalidateFirmwareCache()
}

func freeProp(dev *Device, p *property.Property) {
	if p.Kind.Free == nil {
		return
	}
	if v, ok := dev.props[p.Name]; ok {
		p.Kind.Free(v)
	}
}

func (m *Machine) freeBus(b *Bus) {
	children := append([]*Device(nil), b.children...)
	for _, d := range children {
		m.Free(d)
	}
	if b.parent == nil && b.registeredReset && m.resetRegistry != nil {
		m.resetRegistry.Unregister(b)
	}
}

// Unplug removes a hot-pluggable device from its bus. The device's
// parent bus must allow hot-plug and the device kind must declare an
// Unplug callback.
func (m *Machine) Unplug(dev *Device) error {
	if dev.parent == nil || !dev.parent.allowHotplug {
		return &errors.BusNoHotplug{Bus: busName(dev.parent)}
	}
	if dev.kind.Unplug == nil {
		return fmt.Errorf("device kind %q does not support unplug", dev.kind.Name)
	}
	if err := dev.kind.Unplug(dev); err != nil {
		return err
	}
	m.machineModified = true
	corelog.WithField("kind", dev.kind.Name).Debug("[lifecycle] device unplugged")
	return nil
}

func busName(b *Bus) string {
	if b == nil {
		return ""
	}
	return b.name
}

// Reset runs dev's kind.Reset callback (if any), then recursively resets
// every bus and device in dev's subtree in pre-order. The first callback
// to return a non-nil error halts the walk.
func (m *Machine) Reset(dev *Device) error {
	return resetDevice(dev)
}

func resetDevice(dev *Device) error {
	if dev.kind.Reset != nil {
		if err := dev.kind.Reset(dev); err != nil {
			return err
		}
	}
	for _, b := range dev.childBuses {
		if err := resetBus(b); err != nil {
			return err
		}
	}
	return nil
}

func resetBus(b *Bus) error {
	if b.kind.Reset != nil {
		if err := b.kind.Reset(b); err != nil {
			return err
		}
	}
	for _, d := range b.children {
		if err := resetDevice(d); err != nil {
			return err
		}
	}
	return nil
}

// ResetBus resets a standalone top-level bus and its whole subtree. Used
// by a ResetHandlerRegistry collaborator to drive machine-wide reset.
func (m *Machine) ResetBus(bus *Bus) error {
	return resetBus(bus)
}

// ResetAll resets the entire tree, starting from the root bus.
func (m *Machine) ResetAll() error {
	if m.root == nil {
		return nil
	}
	return resetBus(m.root)
}
