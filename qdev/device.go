package qdev

import (
	stderrors "errors"

	"github.com/imdario/mergo"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"github.com/lalithsuresh/qdevcore/qdev/errors"
	"github.com/lalithsuresh/qdevcore/qdev/property"
	"github.com/lalithsuresh/qdevcore/qdev/state"
)

var errUnknownProperty = stderrors.New("unknown property")

// LifecycleState is the state a Device occupies in the lifecycle state
// machine: Created (allocated, properties may still be set) ->
// Initialised (Init has run, state is live) -> Unplugged (terminal).
type LifecycleState int

const (
	Created LifecycleState = iota
	Initialised
	Unplugged
)

func (s LifecycleState) String() string {
	switch s {
	case Created:
		return "created"
	case Initialised:
		return "initialised"
	case Unplugged:
		return "unplugged"
	default:
		return "unknown"
	}
}

// MigrationAlias lets a device kind present itself to an external
// migration registry under a name other than its own, at a minimum
// required incoming version, for compatibility with a previously shipped
// device kind name.
type MigrationAlias struct {
	AliasID         string
	RequiredVersion int
}

// DeviceKind is a registered, instantiable kind of device: its name,
// property schema, bus-kind affinity, lifecycle callbacks, and optional
// state descriptor.
type DeviceKind struct {
	// Name uniquely identifies the device kind, e.g. "blinker".
	Name string

	// Alias is an optional secondary name the kind may also be looked up
	// by (for backward compatibility with a renamed kind).
	Alias string

	// Description is a short human-readable summary, shown by device-list
	// and driver=? help listings.
	Description string

	// UserCreatable controls whether device_add may instantiate this
	// kind directly. Kinds backing internal implementation details are
	// typically left false.
	UserCreatable bool

	// BusKind is the kind of bus this device plugs into. Every device
	// kind has exactly one bus-kind affinity.
	BusKind *BusKind

	// Properties is this device kind's own settable property schema.
	Properties []*property.Property

	// Init runs once, after properties are set, to bring the device
	// online. A non-nil return aborts creation and frees the device.
	Init func(*Device) error

	// Exit runs once, when an initialised device is freed, to release
	// any resources Init acquired.
	Exit func(*Device) error

	// Reset, if set, is invoked on machine/bus/device reset, before any
	// child bus is reset. Creating or initialising a device does not
	// invoke it.
	Reset func(*Device) error

	// Unplug runs when a hot-pluggable device is removed. A non-nil
	// return aborts the unplug.
	Unplug func(*Device) error

	// State is this device kind's VM-state descriptor, used by
	// device-show style introspection. May be nil.
	State *state.Descriptor
}

// gpioLine is one line of a device's input or output GPIO array.
type gpioLine struct {
	handler   GPIOHandler
	sink      GPIOHandler
	connected bool
}

// Device is one instantiated node of the bus/device tree.
type Device struct {
	kind   *DeviceKind
	parent *Bus
	id     string

	childBuses []*Bus

	state      LifecycleState
	hotplugged bool

	props map[string]interface{}

	inputGPIOs       []gpioLine
	inputGPIOHandler GPIOHandler
	inputGPIOReady   bool
	outputGPIOs      []gpioLine

	migrationAlias *MigrationAlias
	optionBag      OptionBag
}

// Kind returns the device's kind descriptor.
func (d *Device) Kind() *DeviceKind { return d.kind }

// Parent returns the bus the device is plugged into.
func (d *Device) Parent() *Bus { return d.parent }

// ID returns the device's user-assigned identifier, or "" if none was given.
func (d *Device) ID() string { return d.id }

// ChildBuses returns the buses this device owns, in most-recently-created-first order.
func (d *Device) ChildBuses() []*Bus {
	out := make([]*Bus, len(d.childBuses))
	copy(out, d.childBuses)
	return out
}

// State returns the device's current lifecycle state.
func (d *Device) State() LifecycleState { return d.state }

// Hotplugged reports whether this device was created after machine
// creation was marked done.
func (d *Device) Hotplugged() bool { return d.hotplugged }

// Prop returns the current value of a named property slot.
func (d *Device) Prop(name string) (interface{}, bool) {
	v, ok := d.props[name]
	return v, ok
}

// SetMigrationAlias records the alias this device should present to the
// migration registry in place of its own kind name.
func (d *Device) SetMigrationAlias(aliasID string, requiredVersion int) {
	d.migrationAlias = &MigrationAlias{AliasID: aliasID, RequiredVersion: requiredVersion}
}

// MigrationAlias returns the device's configured migration alias, if any.
func (d *Device) MigrationAlias() *MigrationAlias { return d.migrationAlias }

// OptionBag returns the option bag the device was created with, if any.
func (d *Device) OptionBag() OptionBag { return d.optionBag }

// CreateDevice allocates a new device of kind on bus, applying property
// defaults (kind, then bus-kind, then any configured global-default
// overrides) but not yet running Init. Hot-plug gating is enforced here:
// once the machine is marked created, bus must allow hot-plug.
func (m *Machine) CreateDevice(bus *Bus, kind *DeviceKind) (*Device, error) {
	if bus.kind != kind.BusKind {
		return nil, &errors.BadBusForDevice{Kind: kind.Name, BusKind: kind.BusKind.Name}
	}
	if m.machineCreationDone && !bus.allowHotplug {
		return nil, &errors.BusNoHotplug{Bus: bus.name}
	}

	dev := &Device{kind: kind, parent: bus, state: Created, props: map[string]interface{}{}}

	applyDefaults(dev.props, kind.Properties)
	applyDefaults(dev.props, kind.BusKind.Properties)
	if kindDefaults, ok := m.globalDefaults[kind.Name]; ok {
		if err := mergo.Map(&dev.props, kindDefaults, mergo.WithOverride); err != nil {
			corelog.WithField("kind", kind.Name).Warnf("[tree] failed to merge global defaults: %v", err)
		}
	}

	bus.children = append([]*Device{dev}, bus.children...)

	if m.machineCreationDone {
		dev.hotplugged = true
		m.machineModified = true
	}

	m.invalidateFirmwareCache()

	corelog.WithFields(corelog.Fields{"kind": kind.Name, "bus": bus.name}).Debug("[tree] device created")
	return dev, nil
}

func applyDefaults(props map[string]interface{}, schema []*property.Property) {
	for _, p := range schema {
		if p.Default != nil {
			props[p.Name] = p.Default
		}
	}
}

// findProperty looks up a settable property by name, checking the
// device's own kind schema first and then its bus kind's schema.
func findProperty(dev *Device, name string) *property.Property {
	for _, p := range dev.kind.Properties {
		if p.Name == name {
			return p
		}
	}
	for _, p := range dev.kind.BusKind.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ApplyProperty parses text against the named property's Kind and stores
// the resulting value on dev. The reserved "driver" and "bus" keys are
// silently accepted as no-ops, matching the option-bag grammar.
func ApplyProperty(dev *Device, name, text string) error {
	if name == "driver" || name == "bus" {
		return nil
	}
	prop := findProperty(dev, name)
	if prop == nil {
		return &errors.PropertyParseRejected{Name: name, Value: text, Err: errUnknownProperty}
	}
	v, err := prop.Kind.Parse(text)
	if err != nil {
		return &errors.PropertyParseRejected{Name: name, Value: text, Err: err}
	}
	dev.props[name] = v
	return nil
}

// Properties returns the printable properties of d's kind (own plus
// bus-kind), for display by the tree info command.
func (d *Device) Properties() []*property.Property {
	return printableProperties(d.kind)
}

func printableProperties(kind *DeviceKind) []*property.Property {
	var out []*property.Property
	for _, p := range kind.Properties {
		if p.Kind.Print != nil {
			out = append(out, p)
		}
	}
	for _, p := range kind.BusKind.Properties {
		if p.Kind.Print != nil {
			out = append(out, p)
		}
	}
	return out
}
