package qdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/lalithsuresh/qdevcore/qdev/errors"
)

func TestResolveBusPath_instanceQualifier(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	childBus := testBusKind("child")
	hostDK := &DeviceKind{Name: "host", BusKind: sys, UserCreatable: true}
	m.RootBus().kind = sys

	devA, err := m.CreateDevice(m.RootBus(), hostDK)
	require.NoError(t, err)
	devB, err := m.CreateDevice(m.RootBus(), hostDK)
	require.NoError(t, err)

	busA, err := m.CreateBus(childBus, devA, "")
	require.NoError(t, err)
	busB, err := m.CreateBus(childBus, devB, "")
	require.NoError(t, err)

	// bus.children is most-recently-created-first (devB, devA), but ".N"
	// counts in creation order from oldest to newest, so devA is host.0
	// and devB is host.1.
	resolved0, err := m.ResolveBusPath("/host.0", false)
	require.NoError(t, err)
	resolved1, err := m.ResolveBusPath("/host.1", false)
	require.NoError(t, err)

	assert.Same(t, busA, resolved0)
	assert.Same(t, busB, resolved1)
}

func TestResolveBusPath_deviceNoBus(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	leafDK := &DeviceKind{Name: "leaf", BusKind: sys, UserCreatable: true}
	m.RootBus().kind = sys
	_, err := m.CreateDevice(m.RootBus(), leafDK)
	require.NoError(t, err)

	_, err = m.ResolveBusPath("/leaf", false)
	require.Error(t, err)
	var target *qerrors.DeviceNoBus
	assert.ErrorAs(t, err, &target)
}

func TestResolveBusPath_multipleChildBusesAmbiguous(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	child := testBusKind("child")
	hostDK := &DeviceKind{Name: "host", BusKind: sys, UserCreatable: true}
	m.RootBus().kind = sys

	dev, err := m.CreateDevice(m.RootBus(), hostDK)
	require.NoError(t, err)
	_, err = m.CreateBus(child, dev, "")
	require.NoError(t, err)
	_, err = m.CreateBus(child, dev, "")
	require.NoError(t, err)

	_, err = m.ResolveBusPath("/host", true)
	require.Error(t, err)
	var target *qerrors.DeviceMultipleBuses
	require.ErrorAs(t, err, &target)
	assert.Len(t, target.Candidates, 2)

	_, err = m.ResolveBusPath("/host", false)
	require.Error(t, err)
	require.ErrorAs(t, err, &target)
	assert.Empty(t, target.Candidates)
}

func TestFindBusKind_notFound(t *testing.T) {
	m := NewMachine()
	assert.Nil(t, m.FindBusKind("nope"))
}

func TestResolveBusPath_absolutePathBusNotFound(t *testing.T) {
	m := NewMachine()
	_, err := m.ResolveBusPath("/bogus", false)
	require.Error(t, err)
	var target *qerrors.BusNotFound
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "bogus", target.Name)
}

func TestResolveBusPath_absolutePathSegmentBusNameFallback(t *testing.T) {
	m := NewMachine()
	_, err := m.ResolveBusPath("/pci.0", false)
	require.Error(t, err)
	var target *qerrors.BusNotFound
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "pci.0", target.Name)
}

func TestDeviceLabel_userIDTakesPrecedence(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	dk := &DeviceKind{Name: "led", BusKind: sys, UserCreatable: true}
	m.RootBus().kind = sys

	dev, err := m.CreateDevice(m.RootBus(), dk)
	require.NoError(t, err)
	dev.id = "led0"

	assert.Equal(t, "led0", m.DeviceLabel(dev))
}

func TestDeviceLabel_instanceNumberFallsBackByCreationOrder(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	dk := &DeviceKind{Name: "led", BusKind: sys, UserCreatable: true}
	m.RootBus().kind = sys

	devA, err := m.CreateDevice(m.RootBus(), dk)
	require.NoError(t, err)
	devB, err := m.CreateDevice(m.RootBus(), dk)
	require.NoError(t, err)

	assert.Equal(t, "led.0", m.DeviceLabel(devA))
	assert.Equal(t, "led.1", m.DeviceLabel(devB))
}

func TestResolveBusPath_segmentResolvesAsBusNameDirectly(t *testing.T) {
	m := NewMachine()
	sys := testBusKind("sys")
	pci := testBusKind("pci")
	hostDK := &DeviceKind{Name: "host", BusKind: sys, UserCreatable: true}
	m.RootBus().kind = sys

	host, err := m.CreateDevice(m.RootBus(), hostDK)
	require.NoError(t, err)
	pciBus, err := m.CreateBus(pci, host, "pci.0")
	require.NoError(t, err)

	resolved, err := m.ResolveBusPath("/pci.0", false)
	require.NoError(t, err)
	assert.Same(t, pciBus, resolved)
}
