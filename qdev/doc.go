// Package qdev implements the device composition core of a machine
// emulator: the runtime registry, bus/device tree, property system, and
// state-introspection machinery that lets a virtual machine be assembled
// from heterogeneous device models without any board-specific wiring
// code.
//
// The Machine type encapsulates all process-wide state (the device-kind
// registry, the root bus, the hot-plug flag, and the machine-modified
// latch) so that a process can, in principle, host more than one
// independent device tree.
package qdev
