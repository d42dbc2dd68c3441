// Package monitor implements the human-facing command layer named (but
// deliberately left abstract) in the device composition core: device_add,
// device_del, info device-list, and device-show, each returning a plain Go
// value a caller can render however it likes instead of a real QMP/JSON
// wire object, plus info tree, which writes an indented text report to an
// io.Writer.
package monitor

import (
	"fmt"

	"github.com/lalithsuresh/qdevcore/qdev"
	"github.com/lalithsuresh/qdevcore/qdev/state"
)

// DeviceResult summarizes a created device for display.
type DeviceResult struct {
	ID         string
	Kind       string
	Bus        string
	Hotplugged bool
}

// DeviceAdd runs device_add against m and shapes the result for display.
// If bag requested a help listing, Help is populated and Device is nil.
func DeviceAdd(m *qdev.Machine, bag qdev.OptionBag) (*DeviceResult, *qdev.HelpResult, error) {
	dev, help, err := m.DeviceAdd(bag)
	if err != nil {
		return nil, nil, err
	}
	if help != nil {
		return nil, help, nil
	}
	return &DeviceResult{
		ID:         dev.ID(),
		Kind:       dev.Kind().Name,
		Bus:        dev.Parent().Name(),
		Hotplugged: dev.Hotplugged(),
	}, nil, nil
}

// DeviceDel runs device_del against m.
func DeviceDel(m *qdev.Machine, id string) error {
	return m.DeviceDel(id)
}

// KindResult summarizes a registered device kind for the device-list
// info command.
type KindResult struct {
	Name          string
	Alias         string
	Description   string
	BusKind       string
	UserCreatable bool
}

// InfoDeviceList enumerates every registered device kind.
func InfoDeviceList(m *qdev.Machine) []KindResult {
	kinds := m.DeviceKinds()
	out := make([]KindResult, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, KindResult{
			Name:          k.Name,
			Alias:         k.Alias,
			Description:   k.Description,
			BusKind:       k.BusKind.Name,
			UserCreatable: k.UserCreatable,
		})
	}
	return out
}

// DeviceShowResult is the structured output of device-show: a device's
// identity, its state-descriptor schema version, and its walked field
// tree.
type DeviceShowResult struct {
	ID      string
	Kind    string
	Version int
	Fields  []*state.FieldResult
}

// DeviceShow looks a device up by id, walks its kind's state descriptor
// and reports the field tree as-is (including nested Struct sub-trees),
// the same shape Walk itself produces. A device whose kind declares no
// state descriptor fails with DeviceNoState.
func DeviceShow(m *qdev.Machine, id string, full bool) (*DeviceShowResult, error) {
	dev := m.FindDeviceByID(id)
	if dev == nil {
		return nil, fmt.Errorf("device not found: %q", id)
	}

	if dev.Kind().State == nil {
		return nil, state.NoState(dev.Kind().Name)
	}
	res := &DeviceShowResult{ID: m.DeviceLabel(dev), Kind: dev.Kind().Name}
	res.Version = dev.Kind().State.VersionID

	fields, err := dev.Kind().State.Walk(dev, full)
	if err != nil {
		return nil, err
	}
	res.Fields = fields
	return res, nil
}
