package qdev

import "fmt"

// RegisterBusKind adds kind to the machine's bus-kind table. It is an
// error to register a bus kind whose name is already taken.
func (m *Machine) RegisterBusKind(kind *BusKind) error {
	if _, exists := m.busKinds[kind.Name]; exists {
		return fmt.Errorf("bus kind %q already registered", kind.Name)
	}
	m.busKinds[kind.Name] = kind
	return nil
}

// FindBusKind looks up a registered bus kind by name.
func (m *Machine) FindBusKind(name string) *BusKind {
	return m.busKinds[name]
}

// RegisterDeviceKind adds kind to the machine's device-kind registry. It
// is an error to register a device kind whose name (or alias) collides
// with one already registered.
func (m *Machine) RegisterDeviceKind(kind *DeviceKind) error {
	for _, k := range m.deviceKinds {
		if k.Name == kind.Name {
			return fmt.Errorf("device kind %q already registered", kind.Name)
		}
		if kind.Alias != "" && (k.Name == kind.Alias || k.Alias == kind.Alias) {
			return fmt.Errorf("device kind alias %q conflicts with kind %q", kind.Alias, k.Name)
		}
	}
	m.deviceKinds = append(m.deviceKinds, kind)
	return nil
}

// FindDeviceKind looks up a registered device kind by name, falling back
// to an alias match. If busKind is non-nil, only kinds with a matching
// bus-kind affinity are considered.
func (m *Machine) FindDeviceKind(busKind *BusKind, name string) *DeviceKind {
	var aliasMatch *DeviceKind
	for _, k := range m.deviceKinds {
		if busKind != nil && k.BusKind != busKind {
			continue
		}
		if k.Name == name {
			return k
		}
		if k.Alias == name {
			aliasMatch = k
		}
	}
	return aliasMatch
}

// DeviceKinds returns all registered device kinds.
func (m *Machine) DeviceKinds() []*DeviceKind {
	out := make([]*DeviceKind, len(m.deviceKinds))
	copy(out, m.deviceKinds)
	return out
}

// userCreatableKinds returns the subset of registered device kinds that
// device_add may instantiate directly, for driver=? help listings.
func (m *Machine) userCreatableKinds() []*DeviceKind {
	var out []*DeviceKind
	for _, k := range m.deviceKinds {
		if k.UserCreatable {
			out = append(out, k)
		}
	}
	return out
}
