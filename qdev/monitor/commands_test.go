package monitor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalithsuresh/qdevcore/qdev"
	qerrors "github.com/lalithsuresh/qdevcore/qdev/errors"
	"github.com/lalithsuresh/qdevcore/qdev/property"
	"github.com/lalithsuresh/qdevcore/qdev/state"
)

func newTestMachine(t *testing.T) (*qdev.Machine, *qdev.BusKind, *qdev.DeviceKind) {
	t.Helper()
	bk := &qdev.BusKind{Name: "sys"}
	m := qdev.NewMachine(qdev.WithRootBusKind(bk))
	dk := &qdev.DeviceKind{
		Name: "blinker", BusKind: bk, UserCreatable: true,
		Description: "blinks an LED",
		Properties: []*property.Property{
			{Name: "rate", Kind: property.Get("uint32"), Default: uint32(1000)},
		},
	}
	require.NoError(t, m.RegisterBusKind(bk))
	require.NoError(t, m.RegisterDeviceKind(dk))
	return m, bk, dk
}

func TestDeviceAdd_andInfoDeviceList(t *testing.T) {
	m, bk, _ := newTestMachine(t)
	rootBus, err := m.ResolveBusPath("/", false)
	require.NoError(t, err)
	_ = bk
	_ = rootBus

	res, help, err := DeviceAdd(m, qdev.OptionBag{"driver": "blinker", "rate": "500"})
	require.NoError(t, err)
	assert.Nil(t, help)
	require.NotNil(t, res)
	assert.Equal(t, "blinker", res.Kind)

	kinds := InfoDeviceList(m)
	require.Len(t, kinds, 1)
	assert.Equal(t, "blinker", kinds[0].Name)
	assert.Equal(t, "blinks an LED", kinds[0].Description)
}

func TestInfoTree_rendersDevices(t *testing.T) {
	m, _, _ := newTestMachine(t)
	_, _, err := DeviceAdd(m, qdev.OptionBag{"driver": "blinker"})
	require.NoError(t, err)

	var buf bytes.Buffer
	InfoTree(m, &buf)
	assert.Contains(t, buf.String(), "blinker")
}

func TestInfoTree_rendersPropertiesAndGPIOCounts(t *testing.T) {
	bk := &qdev.BusKind{Name: "sys"}
	m := qdev.NewMachine(qdev.WithRootBusKind(bk))
	dk := &qdev.DeviceKind{
		Name: "blinker", BusKind: bk, UserCreatable: true,
		Properties: []*property.Property{
			{Name: "rate", Kind: property.Get("uint32"), Default: uint32(500)},
		},
		Init: func(d *qdev.Device) error {
			d.InitOutputGPIOs(2)
			return nil
		},
	}
	require.NoError(t, m.RegisterBusKind(bk))
	require.NoError(t, m.RegisterDeviceKind(dk))

	_, _, err := DeviceAdd(m, qdev.OptionBag{"driver": "blinker"})
	require.NoError(t, err)

	var buf bytes.Buffer
	InfoTree(m, &buf)
	out := buf.String()
	assert.Contains(t, out, "gpio-out 2")
	assert.Contains(t, out, "prop rate = 500")
}

func TestDeviceShow_noStateDescriptor(t *testing.T) {
	m, _, _ := newTestMachine(t)
	res, _, err := DeviceAdd(m, qdev.OptionBag{"driver": "blinker", "id": "b0"})
	require.NoError(t, err)

	show, err := DeviceShow(m, res.ID, true)
	require.Error(t, err)
	var target *qerrors.DeviceNoState
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "blinker", target.Kind)
	assert.Nil(t, show)
}

func TestDeviceShow_withStateDescriptor(t *testing.T) {
	bk := &qdev.BusKind{Name: "sys"}
	m := qdev.NewMachine(qdev.WithRootBusKind(bk))
	dk := &qdev.DeviceKind{
		Name: "ticker", BusKind: bk, UserCreatable: true,
		Properties: []*property.Property{
			{Name: "ticks", Kind: property.Get("uint32"), Default: uint32(0xdeadbeef)},
		},
		State: &state.Descriptor{
			VersionID: 3,
			Fields: []*state.Field{
				{
					Name:        "ticks",
					ElementSize: 4,
					Count:       state.Scalar,
					Get: func(i interface{}) interface{} {
						v, _ := i.(*qdev.Device).Prop("ticks")
						return v
					},
				},
			},
		},
	}
	require.NoError(t, m.RegisterBusKind(bk))
	require.NoError(t, m.RegisterDeviceKind(dk))

	_, _, err := DeviceAdd(m, qdev.OptionBag{"driver": "ticker", "id": "ticker0"})
	require.NoError(t, err)

	show, err := DeviceShow(m, "ticker0", true)
	require.NoError(t, err)
	assert.Equal(t, "ticker0", show.ID)
	assert.Equal(t, "ticker", show.Kind)
	assert.Equal(t, 3, show.Version)
	require.Len(t, show.Fields, 1)
	assert.Equal(t, "ticks", show.Fields[0].Name)
	assert.Equal(t, 4, show.Fields[0].Size)
	assert.Equal(t, []interface{}{uint32(0xdeadbeef)}, show.Fields[0].Elems)
}

func TestDeviceShow_notFound(t *testing.T) {
	m, _, _ := newTestMachine(t)
	_, err := DeviceShow(m, "nope", true)
	assert.Error(t, err)
}
