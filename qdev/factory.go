package qdev

import (
	"github.com/mitchellh/mapstructure"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"github.com/lalithsuresh/qdevcore/qdev/errors"
	"github.com/lalithsuresh/qdevcore/qdev/property"
)

// reservedOptions is the set of option-bag keys the factory interprets
// itself, decoded via mapstructure so the remaining keys can be handled
// uniformly as property overrides.
type reservedOptions struct {
	Driver string `mapstructure:"driver"`
	Bus    string `mapstructure:"bus"`
	ID     string `mapstructure:"id"`
}

func decodeReserved(bag OptionBag) (reservedOptions, error) {
	generic := make(map[string]interface{}, len(bag))
	for k, v := range bag {
		generic[k] = v
	}
	var out reservedOptions
	err := mapstructure.Decode(generic, &out)
	return out, err
}

// HelpResult is returned by DeviceAdd in place of a created Device when
// the option bag requested a help listing instead of actually creating
// anything (driver=? or a bare "?" once driver/bus are known).
type HelpResult struct {
	// Kinds is populated for driver=?: every user-creatable device kind.
	Kinds []*DeviceKind

	// Properties is populated for a bare "?": the printable properties of
	// the already-resolved device kind (plus its bus kind).
	Properties []*property.Property
}

// DeviceAdd implements the monitor-level device_add command: it resolves
// the driver and bus option-bag keys, creates and configures a device,
// and runs it through Init. Any failure after CreateDevice rolls the
// device back via Free before returning.
func (m *Machine) DeviceAdd(bag OptionBag) (*Device, *HelpResult, error) {
	reserved, err := decodeReserved(bag)
	if err != nil {
		return nil, nil, err
	}

	if reserved.Driver == "" {
		return nil, nil, &errors.MissingParameter{Name: "driver"}
	}
	if reserved.Driver == "?" {
		return nil, &HelpResult{Kinds: m.userCreatableKinds()}, nil
	}

	kind := m.FindDeviceKind(nil, reserved.Driver)
	if kind == nil || !kind.UserCreatable {
		return nil, nil, &errors.InvalidParameterValue{Name: "driver", Expected: "a registered, user-creatable device kind"}
	}

	bus, err := m.resolveTargetBus(kind, reserved.Bus)
	if err != nil {
		return nil, nil, err
	}

	if m.machineCreationDone && !bus.allowHotplug {
		return nil, nil, &errors.BusNoHotplug{Bus: bus.name}
	}

	if _, bareHelp := bag["?"]; bareHelp {
		return nil, &HelpResult{Properties: printableProperties(kind)}, nil
	}

	dev, err := m.CreateDevice(bus, kind)
	if err != nil {
		return nil, nil, err
	}

	if reserved.ID != "" {
		if existing := m.FindDeviceByID(reserved.ID); existing != nil {
			m.Free(dev)
			return nil, nil, &errors.InvalidParameterValue{Name: "id", Expected: "a globally unique device id"}
		}
		dev.id = reserved.ID
	}

	for key, val := range bag {
		switch key {
		case "driver", "bus", "id", "?":
			continue
		}
		if err := ApplyProperty(dev, key, val); err != nil {
			m.Free(dev)
			return nil, nil, err
		}
	}

	if err := m.Init(dev); err != nil {
		return nil, nil, err
	}

	dev.optionBag = bag
	corelog.WithFields(corelog.Fields{"driver": kind.Name, "bus": bus.name}).Info("[factory] device_add succeeded")
	return dev, nil, nil
}

func (m *Machine) resolveTargetBus(kind *DeviceKind, busPath string) (*Bus, error) {
	if busPath != "" {
		bus, err := m.ResolveBusPath(busPath, true)
		if err != nil {
			return nil, err
		}
		if bus.kind != kind.BusKind {
			return nil, &errors.BadBusForDevice{Kind: kind.Name, BusKind: kind.BusKind.Name}
		}
		return bus, nil
	}

	bus := m.findBusForKind(kind.BusKind)
	if bus == nil {
		return nil, &errors.NoBusForDevice{Kind: kind.Name, BusKind: kind.BusKind.Name}
	}
	return bus, nil
}

// DeviceDel implements the monitor-level device_del command: it looks up
// a device by id and unplugs it.
func (m *Machine) DeviceDel(id string) error {
	dev := m.FindDeviceByID(id)
	if dev == nil {
		return &errors.DeviceNotFound{Name: id}
	}
	return m.Unplug(dev)
}
