package qdev

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"github.com/lalithsuresh/qdevcore/qdev/config"
)

// Machine holds all of the process-wide state for one device composition
// core instance: the device-kind and bus-kind registries, the root bus,
// and the hot-plug/modified latches that gate creation after boot.
//
// Machine is not safe for concurrent use. The composition core follows a
// single-threaded, cooperative-scheduling model: callers own their own
// synchronization if a Machine is shared across goroutines.
type Machine struct {
	deviceKinds []*DeviceKind
	busKinds    map[string]*BusKind

	root     *Bus
	rootKind *BusKind

	machineCreationDone bool
	machineModified     bool

	resetRegistry ResetHandlerRegistry
	migration     MigrationRegistry

	globalDefaults map[string]map[string]interface{}
	policies       *config.Policies

	firmwareCache *cache.Cache
	ids           *idAllocator
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// NewMachine constructs a Machine ready to have bus kinds and device
// kinds registered against it.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		busKinds:      map[string]*BusKind{},
		policies:      config.NewDefaultPolicies(),
		firmwareCache: cache.New(5*time.Minute, 10*time.Minute),
		ids:           newIDAllocator(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithResetRegistry configures the collaborator standalone top-level
// buses register their reset handler with.
func WithResetRegistry(r ResetHandlerRegistry) Option {
	return func(m *Machine) { m.resetRegistry = r }
}

// WithMigrationRegistry configures the collaborator devices with a state
// descriptor register their migration stream with.
func WithMigrationRegistry(r MigrationRegistry) Option {
	return func(m *Machine) { m.migration = r }
}

// WithPolicies overrides the machine's policy set (by default, everything
// optional; see config.NewDefaultPolicies). Must precede WithGlobalDefaults
// in the Option list passed to NewMachine for the policy change to take
// effect, since options apply in order and WithGlobalDefaults reads
// m.policies as it runs.
func WithPolicies(p *config.Policies) Option {
	return func(m *Machine) { m.policies = p }
}

// WithGlobalDefaults loads a "kindName.propertyName" -> value override
// file via the config package and applies it as the machine's
// global-default layer, consulted after kind/bus-kind defaults and
// before user-supplied option-bag overrides. Its required/optional policy
// comes from the machine's policy set (see WithPolicies).
func WithGlobalDefaults(loader *config.Loader) Option {
	return func(m *Machine) {
		var defaults config.GlobalDefaults
		if err := loader.Load(m.policies.GlobalDefaults, &defaults); err != nil {
			corelog.Errorf("[machine] failed to load global defaults: %v", err)
			return
		}
		m.globalDefaults = defaults.ByKind()
	}
}

// WithDebugLogging toggles debug-level logging for the whole module.
func WithDebugLogging(debug bool) Option {
	return func(m *Machine) { corelog.SetDebug(debug) }
}

// WithRootBusKind sets the bus kind the lazily created root bus will
// carry. Without this option the root bus gets an internal synthetic
// kind that no registered device kind can target by bus-kind affinity,
// so any board that wants to plug devices directly onto the root bus
// (rather than only onto buses it creates itself) should supply its own
// top-level bus kind here.
func WithRootBusKind(kind *BusKind) Option {
	return func(m *Machine) { m.rootKind = kind }
}

// MachineCreationDone marks machine construction as finished. After this
// call, CreateDevice (and so DeviceAdd) is gated by the target bus's
// AllowHotplug flag. CreateBus is not gated.
func (m *Machine) MachineCreationDone() {
	m.machineCreationDone = true
}

// MachineModified reports whether any device has been hot-plugged or
// hot-unplugged since MachineCreationDone was called. Useful for gating
// save/restore of a running machine to a fresh snapshot.
func (m *Machine) MachineModified() bool {
	return m.machineModified
}

func (m *Machine) invalidateFirmwareCache() {
	m.firmwareCache.Flush()
}
