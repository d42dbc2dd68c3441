package qdev

import "github.com/lalithsuresh/qdevcore/qdev/state"

// ResetHandlerRegistry is an external collaborator a Machine may delegate
// standalone top-level bus reset registration to (e.g. a board's global
// reset hook list). Only buses with no parent device and a non-nil
// BusKind.Reset are registered.
type ResetHandlerRegistry interface {
	Register(bus *Bus)
	Unregister(bus *Bus)
}

// MigrationRegistry is an external collaborator a Machine may delegate
// VM-state migration stream registration to. Register is called once a
// device with a non-nil DeviceKind.State successfully initialises;
// Unregister is called when such a device is freed.
type MigrationRegistry interface {
	Register(dev *Device, descriptor *state.Descriptor, alias *MigrationAlias) error
	Unregister(dev *Device)
}
