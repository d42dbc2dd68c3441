package qdev

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lalithsuresh/qdevcore/qdev/errors"
)

// Iterate walks the device tree in pre-order starting at the root bus,
// invoking fn once per device. If fn returns false the walk stops early.
// FindDeviceByID is built on top of this traversal.
func (m *Machine) Iterate(fn func(dev *Device) bool) {
	if m.root == nil {
		return
	}
	iterateDevices(m.root, fn)
}

func iterateDevices(bus *Bus, fn func(dev *Device) bool) bool {
	for _, d := range bus.children {
		if !fn(d) {
			return false
		}
		for _, cb := range d.childBuses {
			if !iterateDevices(cb, fn) {
				return false
			}
		}
	}
	return true
}

// iterateBuses walks the tree in the same pre-order as Iterate, but
// yields buses instead of devices; FindBusByName and ResolveBusPath's
// recursive bus search are both built on top of this traversal.
func iterateBuses(bus *Bus, fn func(b *Bus) bool) bool {
	if !fn(bus) {
		return false
	}
	for _, d := range bus.children {
		for _, cb := range d.childBuses {
			if !iterateBuses(cb, fn) {
				return false
			}
		}
	}
	return true
}

// FindDeviceByID returns the first device (in pre-order) with the given
// user-assigned id, or nil if none matches.
func (m *Machine) FindDeviceByID(id string) *Device {
	var found *Device
	m.Iterate(func(d *Device) bool {
		if d.id == id {
			found = d
			return false
		}
		return true
	})
	return found
}

// DeviceLabel returns the identifier device-show uses to name dev: its
// user-assigned id if it has one, otherwise the
// "<kind>.<instance-no>" label assigned by creation order within its
// parent bus, matching the same ".N" qualifier scheme ResolveBusPath
// accepts.
func (m *Machine) DeviceLabel(dev *Device) string {
	if dev.id != "" {
		return dev.id
	}
	if dev.parent == nil {
		return dev.kind.Name
	}

	idx := 0
	for i := len(dev.parent.children) - 1; i >= 0; i-- {
		d := dev.parent.children[i]
		if d.kind.Name != dev.kind.Name {
			continue
		}
		if d == dev {
			return fmt.Sprintf("%s.%d", dev.kind.Name, idx)
		}
		idx++
	}
	return dev.kind.Name
}

// FindBusByName returns the first bus (in pre-order, root first) with the
// given name, or nil if none matches.
func (m *Machine) FindBusByName(name string) *Bus {
	if m.root == nil {
		return nil
	}
	var found *Bus
	iterateBuses(m.root, func(b *Bus) bool {
		if b.name == name {
			found = b
			return false
		}
		return true
	})
	return found
}

// findBusForKind returns the first bus (in pre-order) whose kind is bk,
// used by DeviceAdd when no explicit bus= path was given.
func (m *Machine) findBusForKind(bk *BusKind) *Bus {
	if m.root == nil {
		return nil
	}
	var found *Bus
	iterateBuses(m.root, func(b *Bus) bool {
		if b.kind == bk {
			found = b
			return false
		}
		return true
	})
	return found
}

// ResolveBusPath resolves a device-tree path to the bus it denotes. A
// leading "/" anchors the path at the root bus; otherwise the first
// segment is resolved by a recursive search for a bus of that name
// anywhere in the tree. Each subsequent "/"-separated segment names a
// device (by kind name, optionally qualified with ".N" to pick the Nth
// instance, or by alias) whose single child bus is then descended into;
// a device with no child bus fails with DeviceNoBus and one with more
// than one child bus fails with DeviceMultipleBuses, even when the
// segment is also a bus name. A segment that matches no device is tried
// as a bus name anywhere in the tree before the path is rejected with
// BusNotFound. interactive controls whether an ambiguous
// resolution reports its candidate bus names (only useful for a
// human-facing monitor sink).
func (m *Machine) ResolveBusPath(path string, interactive bool) (*Bus, error) {
	if path == "" || path == "/" {
		return m.RootBus(), nil
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")

	var bus *Bus
	start := 0
	if strings.HasPrefix(path, "/") {
		bus = m.RootBus()
	} else {
		b := m.FindBusByName(segs[0])
		if b == nil {
			return nil, &errors.BusNotFound{Name: segs[0]}
		}
		bus = b
		start = 1
	}

	for i := start; i < len(segs); i++ {
		seg := segs[i]
		if seg == "" {
			continue
		}
		next, err := m.resolveDeviceSegment(bus, seg, interactive)
		if err != nil {
			return nil, err
		}
		bus = next
	}
	return bus, nil
}

// resolveDeviceSegment resolves one path segment against bus's children,
// then descends into the resolved device's single child bus. A segment
// that names no device of bus is tried as a direct bus name anywhere in
// the tree before giving up, since the default bus-naming scheme
// ("<kind>.<n>") and a device-kind name are otherwise indistinguishable
// from the grammar alone.
func (m *Machine) resolveDeviceSegment(bus *Bus, seg string, interactive bool) (*Bus, error) {
	dev, err := findDeviceInBus(bus, seg)
	if err != nil {
		if _, ok := err.(*errors.DeviceNotFound); ok {
			if b := m.FindBusByName(seg); b != nil {
				return b, nil
			}
			return nil, &errors.BusNotFound{Name: seg}
		}
		return nil, err
	}

	switch len(dev.childBuses) {
	case 0:
		return nil, &errors.DeviceNoBus{Name: seg}
	case 1:
		return dev.childBuses[0], nil
	default:
		err := &errors.DeviceMultipleBuses{Name: seg}
		if interactive {
			for _, b := range dev.childBuses {
				err.Candidates = append(err.Candidates, b.name)
			}
		}
		return nil, err
	}
}

// findDeviceInBus resolves a single segment against bus's direct
// children: "<kindName>" (first match), "<kindName>.<N>" (the Nth match,
// 0-indexed, in creation order oldest-first), or an alias match.
func findDeviceInBus(bus *Bus, seg string) (*Device, error) {
	kindName, index, hasIndex := splitInstanceQualifier(seg)

	// bus.children is stored most-recently-created-first; walk it
	// reversed so ".N" addresses devices in creation order.
	var matches []*Device
	for i := len(bus.children) - 1; i >= 0; i-- {
		d := bus.children[i]
		if d.kind.Name == kindName {
			matches = append(matches, d)
		}
	}

	if hasIndex {
		if index < 0 || index >= len(matches) {
			return nil, &errors.DeviceNotFound{Name: seg}
		}
		return matches[index], nil
	}
	if len(matches) > 0 {
		return matches[0], nil
	}

	for _, d := range bus.children {
		if d.kind.Alias == seg {
			return d, nil
		}
	}
	return nil, &errors.DeviceNotFound{Name: seg}
}

func splitInstanceQualifier(seg string) (name string, index int, hasIndex bool) {
	idx := strings.LastIndex(seg, ".")
	if idx < 0 {
		return seg, 0, false
	}
	n, err := strconv.Atoi(seg[idx+1:])
	if err != nil {
		return seg, 0, false
	}
	return seg[:idx], n, true
}
