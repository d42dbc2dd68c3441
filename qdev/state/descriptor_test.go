package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	ticks   uint32
	flags   uint32
	count   int32
	samples []uint32
	buf     []byte
}

func TestWalk_scalar(t *testing.T) {
	d := &Descriptor{
		VersionID: 1,
		Fields: []*Field{
			{
				Name:        "ticks",
				ElementSize: 4,
				Count:       Scalar,
				Get:         func(i interface{}) interface{} { return i.(*fakeDevice).ticks },
			},
		},
	}

	fd := &fakeDevice{ticks: 0xDEADBEEF}
	results, err := d.Walk(fd, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ticks", results[0].Name)
	assert.Equal(t, []interface{}{uint32(0xDEADBEEF)}, results[0].Elems)
	assert.Equal(t, 4, results[0].Size)
}

func TestWalk_predicateSkips(t *testing.T) {
	d := &Descriptor{
		Fields: []*Field{
			{
				Name:        "hidden",
				ElementSize: 4,
				Predicate:   func(i interface{}, version int) bool { return false },
				Get:         func(i interface{}) interface{} { return uint32(1) },
			},
		},
	}
	results, err := d.Walk(&fakeDevice{}, true)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWalk_bitfield(t *testing.T) {
	d := &Descriptor{
		Fields: []*Field{
			{
				Name:        "enabled",
				ElementSize: 4,
				Flags:       Bitfield,
				BitMask:     0x1,
				Get:         func(i interface{}) interface{} { return i.(*fakeDevice).flags },
			},
		},
	}
	results, err := d.Walk(&fakeDevice{flags: 0x3}, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bit_enabled", results[0].Name)
	assert.Equal(t, []interface{}{uint64(1)}, results[0].Elems)
}

func TestWalk_varArray(t *testing.T) {
	d := &Descriptor{
		Fields: []*Field{
			{
				Name:        "count",
				ElementSize: 4,
				Count:       Scalar,
				Get:         func(i interface{}) interface{} { return i.(*fakeDevice).count },
			},
			{
				Name:        "samples",
				ElementSize: 4,
				Count:       VarArrayInt32,
				CountField:  "count",
				Get:         func(i interface{}) interface{} { return i.(*fakeDevice).samples },
			},
		},
	}
	fd := &fakeDevice{count: 3, samples: []uint32{1, 2, 3}}
	results, err := d.Walk(fd, true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []interface{}{uint32(1), uint32(2), uint32(3)}, results[1].Elems)
}

func TestWalk_bufferPreview(t *testing.T) {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(i)
	}
	d := &Descriptor{
		Fields: []*Field{
			{
				Name:  "buf",
				Flags: VarBuffer,
				Get:   func(i interface{}) interface{} { return i.(*fakeDevice).buf },
			},
		},
	}
	fd := &fakeDevice{buf: buf}

	results, err := d.Walk(fd, false)
	require.NoError(t, err)
	assert.Len(t, results[0].Elems, maxBufferPreview)

	full, err := d.Walk(fd, true)
	require.NoError(t, err)
	assert.Len(t, full[0].Elems, 32)
}

func TestWalk_preSaveHookRunsOnce(t *testing.T) {
	calls := 0
	d := &Descriptor{
		PreSaveHook: func(i interface{}) error { calls++; return nil },
		Fields: []*Field{
			{Name: "ticks", ElementSize: 4, Get: func(i interface{}) interface{} { return uint32(1) }},
		},
	}
	_, err := d.Walk(&fakeDevice{}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
