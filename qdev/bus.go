package qdev

import (
	"fmt"
	"strings"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"github.com/lalithsuresh/qdevcore/qdev/property"
)

// BusKind describes one kind of bus: its name, the properties its child
// devices may set against it, and a handful of optional bus-level
// behaviors (reset, firmware-path naming, info printing).
type BusKind struct {
	// Name uniquely identifies the bus kind, e.g. "I2C", "PCI".
	Name string

	// Properties are settable against any device plugged into a bus of
	// this kind, in addition to the device kind's own properties.
	Properties []*property.Property

	// Reset, if set, is invoked when the bus (or its owning device) is
	// reset, before any of its child devices are reset.
	Reset func(*Bus) error

	// GetFirmwarePath, if set, overrides the default (device-kind-name)
	// firmware path segment contributed by a device plugged into this
	// bus kind.
	GetFirmwarePath func(*Device) string

	// PrintDev, if set, renders extra per-device detail for an info-tree
	// listing (e.g. a bus address), appended after the device's own kind
	// name.
	PrintDev func(*Device) string
}

// Bus is one node of the bus/device tree: an instance of a BusKind, owned
// either by nothing (the root bus) or by exactly one parent device.
type Bus struct {
	kind     *BusKind
	parent   *Device
	name     string
	children []*Device

	allowHotplug    bool
	registeredReset bool
}

// Kind returns the bus's kind descriptor.
func (b *Bus) Kind() *BusKind { return b.kind }

// Parent returns the device that owns this bus, or nil for the root bus.
func (b *Bus) Parent() *Device { return b.parent }

// Name returns the bus's unique (among its siblings) name.
func (b *Bus) Name() string { return b.name }

// Children returns the devices plugged directly into this bus, in
// most-recently-created-first order.
func (b *Bus) Children() []*Device {
	out := make([]*Device, len(b.children))
	copy(out, b.children)
	return out
}

// AllowHotplug reports whether devices may be added to or removed from
// this bus after machine creation is done.
func (b *Bus) AllowHotplug() bool { return b.allowHotplug }

// SetAllowHotplug configures whether this bus supports hot-plug. It is
// meaningful to call only before machine creation is marked done.
func (b *Bus) SetAllowHotplug(allow bool) { b.allowHotplug = allow }

func (b *Bus) removeChild(dev *Device) {
	for i, d := range b.children {
		if d == dev {
			b.children = append(b.children[:i], b.children[i+1:]...)
			dev.parent = nil
			return
		}
	}
}

// CreateBus allocates a new bus of the given kind under parent (nil for a
// standalone top-level bus distinct from the root bus). If name is empty
// a name is generated from the parent device's id (or the bus kind's
// name, lowercased) and a running child-bus count.
func (m *Machine) CreateBus(kind *BusKind, parent *Device, name string) (*Bus, error) {
	if kind == nil {
		return nil, fmt.Errorf("create bus: nil bus kind")
	}

	if name == "" {
		name = m.generateBusName(kind, parent)
	}

	if parent != nil {
		for _, b := range parent.childBuses {
			if b.name == name {
				return nil, fmt.Errorf("create bus: sibling bus name %q already in use under device %q", name, parent.id)
			}
		}
	}

	bus := &Bus{kind: kind, parent: parent, name: name}

	if parent != nil {
		parent.childBuses = append([]*Bus{bus}, parent.childBuses...)
	} else if kind.Reset != nil && m.resetRegistry != nil {
		m.resetRegistry.Register(bus)
		bus.registeredReset = true
	}

	m.invalidateFirmwareCache()

	corelog.WithFields(corelog.Fields{"bus": bus.name, "kind": kind.Name}).Debug("[tree] bus created")
	return bus, nil
}

func (m *Machine) generateBusName(kind *BusKind, parent *Device) string {
	n := 0
	if parent != nil {
		n = len(parent.childBuses)
	}
	if parent != nil && parent.id != "" {
		return fmt.Sprintf("%s.%d", parent.id, n)
	}
	return fmt.Sprintf("%s.%d", strings.ToLower(kind.Name), n)
}

// RootBus returns the machine's root bus, creating it lazily on first
// access so that a freshly constructed Machine with no devices yet has no
// observable root bus (per the tree's lazy-creation invariant).
func (m *Machine) RootBus() *Bus {
	if m.root == nil {
		m.root = &Bus{kind: m.systemBusKind(), name: "/"}
	}
	return m.root
}

func (m *Machine) systemBusKind() *BusKind {
	if m.rootKind == nil {
		m.rootKind = &BusKind{Name: "system"}
	}
	return m.rootKind
}
