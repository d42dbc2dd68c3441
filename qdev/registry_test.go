package qdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBusKind_conflict(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.RegisterBusKind(testBusKind("sys")))
	assert.Error(t, m.RegisterBusKind(testBusKind("sys")))
}

func TestRegisterDeviceKind_conflict(t *testing.T) {
	m := NewMachine()
	bk := testBusKind("sys")
	require.NoError(t, m.RegisterDeviceKind(testDeviceKind("blinker", bk, true)))
	assert.Error(t, m.RegisterDeviceKind(testDeviceKind("blinker", bk, true)))
}

func TestFindDeviceKind_aliasFallback(t *testing.T) {
	m := NewMachine()
	bk := testBusKind("sys")
	dk := testDeviceKind("blinker", bk, true)
	dk.Alias = "flasher"
	require.NoError(t, m.RegisterDeviceKind(dk))

	assert.Same(t, dk, m.FindDeviceKind(nil, "blinker"))
	assert.Same(t, dk, m.FindDeviceKind(nil, "flasher"))
	assert.Nil(t, m.FindDeviceKind(nil, "nonexistent"))
}

func TestFindDeviceKind_busKindFiltered(t *testing.T) {
	m := NewMachine()
	bkA := testBusKind("a")
	bkB := testBusKind("b")
	dk := testDeviceKind("widget", bkA, true)
	require.NoError(t, m.RegisterDeviceKind(dk))

	assert.Same(t, dk, m.FindDeviceKind(bkA, "widget"))
	assert.Nil(t, m.FindDeviceKind(bkB, "widget"))
}
