// Package state implements the VM-state descriptor walker: a declarative
// schema over a device's persistent fields that produces a structured
// field/size/value tree for introspection, mirroring the way the teacher
// SDK's `output` package declares typed reading metadata, but generalized
// to nested/array/pointer/buffer/queue field shapes.
package state

import (
	"fmt"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"github.com/lalithsuresh/qdevcore/qdev/errors"
)

// CountPolicy determines how many elements a Field holds.
type CountPolicy int

const (
	// Scalar fields hold exactly one element.
	Scalar CountPolicy = iota
	// FixedArray fields hold a compile-time-fixed number of elements.
	FixedArray
	// VarArrayInt32 fields read their element count from a sibling field,
	// interpreted as a signed 32-bit integer.
	VarArrayInt32
	// VarArrayUint16 fields read their element count from a sibling field,
	// interpreted as an unsigned 16-bit integer.
	VarArrayUint16
)

// Flag is a bitmask of the special field interpretations a Field may carry.
// A field may combine at most one of Pointer/ArrayOfPointer/Struct/Buffer/
// VarBuffer/Queue with the Bitfield flag.
type Flag uint

const (
	// Bitfield masks the underlying integer with BitMask and emits 0 or 1.
	Bitfield Flag = 1 << iota
	// Pointer marks a field read through a pointer. The walker does not
	// dereference anything itself; Get returns the dereferenced value.
	Pointer
	// ArrayOfPointer marks an array of pointers. As with Pointer, Get
	// returns the already-dereferenced elements.
	ArrayOfPointer
	// Struct recurses into a Nested descriptor instead of reading scalars.
	Struct
	// Buffer emits the raw bytes of a fixed-size byte slice.
	Buffer
	// VarBuffer emits the raw bytes of a variable-size byte slice. Its size
	// is the length of the slice Get returns; Count is not consulted.
	VarBuffer
	// Queue delegates rendering of each element to QueuePrinter.
	Queue
)

// maxBufferPreview is the number of leading bytes emitted for a
// Buffer/VarBuffer field when not in full dump mode.
const maxBufferPreview = 16

// Field describes one entry in a Descriptor's schema.
type Field struct {
	// Name is the field's display name. For a Bitfield, this is replaced
	// on output by "bit_" + Name.
	Name string

	// ElementSize is the byte width of one element, used only for the
	// plain-integer interpretation (must be one of 1, 2, 4, 8). Ignored
	// for Struct/Buffer/Queue fields.
	ElementSize int

	// Count determines how many elements this field holds.
	Count CountPolicy

	// FixedCount is the element count when Count == FixedArray.
	FixedCount int

	// CountField names the sibling Field (by Name, looked up on the same
	// Descriptor's prior results) that holds the element count when
	// Count is VarArrayInt32 or VarArrayUint16.
	CountField string

	// Flags is the bitmask of special interpretations applying to this field.
	Flags Flag

	// BitMask is applied to the raw integer when Flags has Bitfield set.
	BitMask uint64

	// Predicate, if set, is evaluated against the instance and version; if
	// it returns false the field is skipped entirely.
	Predicate func(instance interface{}, version int) bool

	// Nested is the descriptor used to recurse into a Struct field.
	Nested *Descriptor

	// QueuePrinter renders a single queue element to text, for Queue fields.
	QueuePrinter func(elem interface{}) string

	// Get reads the field's raw value(s) off the instance. For Scalar it
	// must return a single value; for any array count policy it must
	// return a slice. For Pointer/ArrayOfPointer fields, Get returns the
	// already-dereferenced value(s) (Go has no raw addresses to walk, so
	// dereferencing is the getter's responsibility) -- see DESIGN.md.
	Get func(instance interface{}) interface{}

	// Start, if non-nil, is reported in the result as an informational
	// caption alongside array fields (e.g. a base index).
	Start *uint64
}

// Descriptor is a versioned schema over a device's persistent state.
type Descriptor struct {
	// VersionID identifies the schema version, reported verbatim in results.
	VersionID int

	// PreSaveHook, if set, is invoked exactly once before the fields are
	// walked, to let the device normalize any cached-but-dirty state.
	PreSaveHook func(instance interface{}) error

	// Fields is the ordered list of fields making up the schema.
	Fields []*Field
}

// FieldResult is one entry in the structured output tree produced by Walk.
type FieldResult struct {
	// Name is the field's display name (bit_<name> for bitfields).
	Name string
	// Elems holds one value per element. For Struct fields, each element
	// is itself a []*FieldResult (a nested sub-tree, not a scalar).
	Elems []interface{}
	// Size is the byte width of one element (0 for Struct/Queue fields).
	Size int
	// Start mirrors Field.Start, when set.
	Start *uint64
}

// Walk executes the descriptor against instance, which must be the same
// kind of value the Field.Get closures expect. full controls whether
// Buffer/VarBuffer fields are dumped in their entirety or previewed.
func (d *Descriptor) Walk(instance interface{}, full bool) ([]*FieldResult, error) {
	if d.PreSaveHook != nil {
		if err := d.PreSaveHook(instance); err != nil {
			return nil, fmt.Errorf("pre-save hook failed: %w", err)
		}
	}

	var results []*FieldResult
	byName := map[string]*FieldResult{}

	for _, f := range d.Fields {
		if f.Predicate != nil && !f.Predicate(instance, d.VersionID) {
			continue
		}

		res, err := walkField(f, instance, byName, full)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		byName[f.Name] = res
	}
	return results, nil
}

func walkField(f *Field, instance interface{}, priorResults map[string]*FieldResult, full bool) (*FieldResult, error) {
	name := f.Name
	if f.Flags&Bitfield != 0 {
		name = "bit_" + f.Name
	}

	if f.Flags&Struct != 0 {
		return walkStructField(f, name, instance, full)
	}

	if f.Get == nil {
		return nil, fmt.Errorf("state field %q has no Get accessor", f.Name)
	}
	raw := f.Get(instance)

	if f.Flags&Queue != 0 {
		return walkQueueField(f, name, raw)
	}

	if f.Flags&(Buffer|VarBuffer) != 0 {
		return walkBufferField(f, name, raw, full)
	}

	count, err := resolveCount(f, priorResults)
	if err != nil {
		return nil, err
	}

	elems, err := scalarElems(f, raw, count)
	if err != nil {
		return nil, err
	}

	if f.Flags&Bitfield != 0 {
		for i, e := range elems {
			v := toUint64(e)
			masked := v & f.BitMask
			if masked != 0 {
				elems[i] = uint64(1)
			} else {
				elems[i] = uint64(0)
			}
		}
	}

	return &FieldResult{Name: name, Elems: elems, Size: f.ElementSize, Start: f.Start}, nil
}

func walkStructField(f *Field, name string, instance interface{}, full bool) (*FieldResult, error) {
	if f.Nested == nil {
		return nil, fmt.Errorf("state field %q is a struct but has no Nested descriptor", f.Name)
	}
	if f.Get == nil {
		return nil, fmt.Errorf("state field %q has no Get accessor", f.Name)
	}
	raw := f.Get(instance)

	count := 1
	if f.Count == FixedArray {
		count = f.FixedCount
	}

	vals, ok := asSlice(raw, count)
	if !ok {
		return nil, fmt.Errorf("state field %q: expected slice of nested instances", f.Name)
	}

	elems := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		sub, err := f.Nested.Walk(v, full)
		if err != nil {
			return nil, fmt.Errorf("state field %q: %w", f.Name, err)
		}
		elems = append(elems, sub)
	}
	return &FieldResult{Name: name, Elems: elems, Size: 0}, nil
}

func walkQueueField(f *Field, name string, raw interface{}) (*FieldResult, error) {
	if f.QueuePrinter == nil {
		return nil, fmt.Errorf("state field %q is a queue but has no QueuePrinter", f.Name)
	}
	vals, ok := asSlice(raw, -1)
	if !ok {
		return nil, fmt.Errorf("state field %q: expected slice for queue", f.Name)
	}
	elems := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		elems = append(elems, f.QueuePrinter(v))
	}
	return &FieldResult{Name: name, Elems: elems, Size: 0}, nil
}

func walkBufferField(f *Field, name string, raw interface{}, full bool) (*FieldResult, error) {
	buf, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("state field %q: expected []byte for buffer", f.Name)
	}
	preview := buf
	if !full && len(buf) > maxBufferPreview {
		preview = buf[:maxBufferPreview]
		corelog.WithField("field", f.Name).Debug("[state] truncating buffer preview")
	}
	elems := make([]interface{}, len(preview))
	for i, b := range preview {
		elems[i] = b
	}
	return &FieldResult{Name: name, Elems: elems, Size: 1}, nil
}

// resolveCount determines the element count for non-buffer, non-struct,
// non-queue fields.
func resolveCount(f *Field, priorResults map[string]*FieldResult) (int, error) {
	switch f.Count {
	case Scalar:
		return 1, nil
	case FixedArray:
		return f.FixedCount, nil
	case VarArrayInt32, VarArrayUint16:
		ref, ok := priorResults[f.CountField]
		if !ok || len(ref.Elems) == 0 {
			return 0, fmt.Errorf("state field %q: count field %q not found", f.Name, f.CountField)
		}
		return int(toUint64(ref.Elems[0])), nil
	default:
		return 0, fmt.Errorf("state field %q: unknown count policy", f.Name)
	}
}

// scalarElems normalizes a Get() result into a slice of raw integer values.
// Pointer/ArrayOfPointer need no handling here, since Go's Get closures
// already perform any address dereferencing; only the declared element
// width and shape are validated.
func scalarElems(f *Field, raw interface{}, count int) ([]interface{}, error) {
	if f.ElementSize != 1 && f.ElementSize != 2 && f.ElementSize != 4 && f.ElementSize != 8 {
		return nil, fmt.Errorf("state field %q: unsupported element size %d", f.Name, f.ElementSize)
	}

	if count == 1 && f.Count == Scalar {
		return []interface{}{raw}, nil
	}

	vals, ok := asSlice(raw, count)
	if !ok {
		return nil, fmt.Errorf("state field %q: expected slice of %d elements", f.Name, count)
	}
	out := make([]interface{}, len(vals))
	copy(out, vals)
	return out, nil
}

// asSlice reflects raw into a []interface{}, rejecting it when count >= 0
// and the length differs from count.
func asSlice(raw interface{}, count int) ([]interface{}, bool) {
	switch v := raw.(type) {
	case []interface{}:
		if count >= 0 && len(v) != count {
			return nil, false
		}
		return v, true
	default:
		return reflectSlice(raw, count)
	}
}

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	case int8:
		return uint64(n)
	case int16:
		return uint64(n)
	case int32:
		return uint64(n)
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}

// NoState is returned by callers that need to signal the
// DeviceNoState error in terms of the errors package without importing it
// at every call site.
func NoState(kind string) error {
	return &errors.DeviceNoState{Kind: kind}
}
