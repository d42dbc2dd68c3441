package qdev

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_rollsBackOnFailure(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	exitCalled := false
	dk := &DeviceKind{
		Name: "widget", BusKind: sys, UserCreatable: true,
		Init: func(*Device) error { return errors.New("boom") },
		Exit: func(*Device) error { exitCalled = true; return nil },
	}
	m.RootBus().kind = sys

	dev, err := m.CreateDevice(m.RootBus(), dk)
	require.NoError(t, err)

	err = m.Init(dev)
	require.Error(t, err)
	assert.False(t, exitCalled, "Exit should not run for a device that never finished Init")
	assert.Empty(t, m.RootBus().Children(), "failed device should be unlinked from its bus")
}

func TestFree_recursesChildBusesDepthFirst(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	child := testBusKind("child")

	var order []string
	hostDK := &DeviceKind{
		Name: "host", BusKind: sys, UserCreatable: true,
		Exit: func(d *Device) error { order = append(order, "host"); return nil },
	}
	leafDK := &DeviceKind{
		Name: "leaf", BusKind: child, UserCreatable: true,
		Exit: func(d *Device) error { order = append(order, "leaf"); return nil },
	}
	m.RootBus().kind = sys

	host, err := m.CreateDevice(m.RootBus(), hostDK)
	require.NoError(t, err)
	require.NoError(t, m.Init(host))

	bus, err := m.CreateBus(child, host, "")
	require.NoError(t, err)
	leaf, err := m.CreateDevice(bus, leafDK)
	require.NoError(t, err)
	require.NoError(t, m.Init(leaf))

	m.Free(host)
	assert.Equal(t, []string{"leaf", "host"}, order)
	assert.Equal(t, Unplugged, leaf.State())
	assert.Equal(t, Unplugged, host.State())
}
