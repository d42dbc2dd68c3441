// Package property implements the typed property-kind system described in
// the device composition core: a small table of named value types, each
// with a parse/print/free triple, that decouples option-bag strings from
// typed device fields.
//
// This mirrors the role the teacher SDK's `output` package plays for
// reading outputs (a name-keyed registry of typed value descriptors), but
// the kinds here describe settable device configuration rather than
// read-only output units.
package property

import (
	"fmt"

	"github.com/lalithsuresh/qdevcore/qdev/errors"
)

// Kind is a named property value-type. Parse turns option-bag text into a
// typed Go value; Print renders a value back to text for display (kinds
// without Print are "legacy" and are never shown to users); Free releases
// any resources the value might hold (most Go kinds have nothing to do
// here, but it is kept for symmetry with kinds that wrap external handles).
type Kind struct {
	// Name is the unique name of the kind, e.g. "bool", "uint32", "str".
	Name string

	// Parse converts text into a typed value. It must return a
	// *errors.PropertyParseRejected-wrapped error (via NewParseRejected)
	// when the text is malformed or out of range.
	Parse func(text string) (interface{}, error)

	// Print renders a value back into text. May be nil for legacy kinds.
	Print func(value interface{}) (string, error)

	// Free releases any resources associated with a value. May be nil.
	Free func(value interface{})
}

// registeredKinds is the process-wide table of known property kinds.
var registeredKinds = map[string]*Kind{}

func init() {
	for _, k := range builtinKinds() {
		registeredKinds[k.Name] = k
	}
}

// Register adds new kinds to the registered kind table. It is an error to
// register a kind whose name is already taken.
func Register(kinds ...*Kind) error {
	multiErr := errors.NewMultiError("property kind registration")
	for _, k := range kinds {
		if _, exists := registeredKinds[k.Name]; exists {
			multiErr.Add(fmt.Errorf("conflict: property kind %q already registered", k.Name))
			continue
		}
		registeredKinds[k.Name] = k
	}
	return multiErr.Err()
}

// Get looks up a registered Kind by name. Returns nil if not found.
func Get(name string) *Kind {
	return registeredKinds[name]
}

// Property is a named, typed, defaultable slot in a device kind's schema.
type Property struct {
	// Name is the property's name, as it appears in option bags.
	Name string

	// Kind is the value-type of the property.
	Kind *Kind

	// Default is the value assigned to the slot before any user overrides
	// or global-default overrides are applied.
	Default interface{}
}

// NewParseRejected wraps a parse failure as a PropertyParseRejected error,
// the canonical error kind for malformed or out-of-range property text.
func NewParseRejected(name, value string, cause error) error {
	return &errors.PropertyParseRejected{Name: name, Value: value, Err: cause}
}
