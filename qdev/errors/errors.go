// Package errors defines the typed, user-visible error kinds produced by
// the qdevcore device composition core. Each kind is a distinct struct
// implementing the error interface (rather than a sentinel value) so that
// callers can recover structured fields via errors.As.
package errors

import "fmt"

// MissingParameter indicates that a required option-bag key was absent.
type MissingParameter struct {
	Name string
}

func (e *MissingParameter) Error() string {
	return fmt.Sprintf("missing parameter: %q", e.Name)
}

// InvalidParameterValue indicates a parameter was present but did not
// resolve to anything valid (e.g. an unknown driver or alias name).
type InvalidParameterValue struct {
	Name     string
	Expected string
}

func (e *InvalidParameterValue) Error() string {
	return fmt.Sprintf("invalid value for parameter %q: expected %s", e.Name, e.Expected)
}

// BadBusForDevice indicates an explicit bus= target that is incompatible
// with the requested device kind's bus-kind affinity.
type BadBusForDevice struct {
	Kind    string
	BusKind string
}

func (e *BadBusForDevice) Error() string {
	return fmt.Sprintf("bus for device %q is of the wrong kind: expected %q", e.Kind, e.BusKind)
}

// NoBusForDevice indicates that no bus= was given and no bus of a matching
// kind could be found anywhere in the tree.
type NoBusForDevice struct {
	Kind    string
	BusKind string
}

func (e *NoBusForDevice) Error() string {
	return fmt.Sprintf("no bus found for device %q (needs bus kind %q)", e.Kind, e.BusKind)
}

// BusNoHotplug indicates a hot-plug gate rejection: the bus does not allow
// devices to be added or removed after machine creation is done.
type BusNoHotplug struct {
	Bus string
}

func (e *BusNoHotplug) Error() string {
	return fmt.Sprintf("bus %q does not support hotplug", e.Bus)
}

// BusNotFound indicates a path segment that did not resolve to any bus.
type BusNotFound struct {
	Name string
}

func (e *BusNotFound) Error() string {
	return fmt.Sprintf("bus not found: %q", e.Name)
}

// DeviceNotFound indicates a path segment, alias, or id that did not
// resolve to any device.
type DeviceNotFound struct {
	Name string
}

func (e *DeviceNotFound) Error() string {
	return fmt.Sprintf("device not found: %q", e.Name)
}

// DeviceNoBus indicates that path resolution terminated on a device with
// no child buses, so there was nothing further to resolve to.
type DeviceNoBus struct {
	Name string
}

func (e *DeviceNoBus) Error() string {
	return fmt.Sprintf("device %q has no child bus", e.Name)
}

// DeviceMultipleBuses indicates that path resolution terminated on a
// device with more than one child bus, so the target is ambiguous.
// Candidates is only populated when the resolution was requested on
// behalf of a human-interactive sink; otherwise it is left empty.
type DeviceMultipleBuses struct {
	Name       string
	Candidates []string
}

func (e *DeviceMultipleBuses) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("device %q has multiple child buses", e.Name)
	}
	return fmt.Sprintf("device %q has multiple child buses: %v", e.Name, e.Candidates)
}

// DeviceInitFailed indicates that a device kind's Init callback failed.
type DeviceInitFailed struct {
	Kind string
	Err  error
}

func (e *DeviceInitFailed) Error() string {
	return fmt.Sprintf("device init failed for kind %q: %v", e.Kind, e.Err)
}

func (e *DeviceInitFailed) Unwrap() error {
	return e.Err
}

// DeviceNoState indicates a device-show request against a device whose
// kind does not declare a state descriptor.
type DeviceNoState struct {
	Kind string
}

func (e *DeviceNoState) Error() string {
	return fmt.Sprintf("device kind %q has no state descriptor", e.Kind)
}

// PropertyParseRejected indicates that a property's Parse function rejected
// the textual value supplied for it.
type PropertyParseRejected struct {
	Name  string
	Value string
	Err   error
}

func (e *PropertyParseRejected) Error() string {
	return fmt.Sprintf("property %q rejected value %q: %v", e.Name, e.Value, e.Err)
}

func (e *PropertyParseRejected) Unwrap() error {
	return e.Err
}
