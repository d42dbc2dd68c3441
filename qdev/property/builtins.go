package property

import (
	"fmt"
	"strconv"
)

// builtinKinds returns the set of property kinds registered by default.
// These cover the scalar types that the overwhelming majority of device
// kinds, plus a byte-size kind with unit suffixes; plugins/devices needing
// something bespoke (e.g. a MAC address kind) register their own via
// Register.
func builtinKinds() []*Kind {
	return []*Kind{
		Bool,
		Uint8,
		Uint16,
		Uint32,
		Uint64,
		Int32,
		Int64,
		Str,
		Size,
	}
}

// Bool is the boolean property kind. Accepts "true"/"false"/"on"/"off".
var Bool = &Kind{
	Name: "bool",
	Parse: func(text string) (interface{}, error) {
		switch text {
		case "on", "true":
			return true, nil
		case "off", "false":
			return false, nil
		}
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, NewParseRejected("bool", text, err)
		}
		return v, nil
	},
	Print: func(value interface{}) (string, error) {
		return strconv.FormatBool(value.(bool)), nil
	},
}

func uintKind(name string, bits int) *Kind {
	return &Kind{
		Name: name,
		Parse: func(text string) (interface{}, error) {
			v, err := strconv.ParseUint(text, 0, bits)
			if err != nil {
				return nil, NewParseRejected(name, text, err)
			}
			switch bits {
			case 8:
				return uint8(v), nil
			case 16:
				return uint16(v), nil
			case 32:
				return uint32(v), nil
			default:
				return v, nil
			}
		},
		Print: func(value interface{}) (string, error) {
			return fmt.Sprintf("%d", value), nil
		},
	}
}

func intKind(name string, bits int) *Kind {
	return &Kind{
		Name: name,
		Parse: func(text string) (interface{}, error) {
			v, err := strconv.ParseInt(text, 0, bits)
			if err != nil {
				return nil, NewParseRejected(name, text, err)
			}
			if bits == 32 {
				return int32(v), nil
			}
			return v, nil
		},
		Print: func(value interface{}) (string, error) {
			return fmt.Sprintf("%d", value), nil
		},
	}
}

// Uint8, Uint16, Uint32, Uint64 are the fixed-width unsigned integer kinds.
var (
	Uint8  = uintKind("uint8", 8)
	Uint16 = uintKind("uint16", 16)
	Uint32 = uintKind("uint32", 32)
	Uint64 = uintKind("uint64", 64)
)

// Int32 and Int64 are the fixed-width signed integer kinds.
var (
	Int32 = intKind("int32", 32)
	Int64 = intKind("int64", 64)
)

// Str is the plain string property kind. Parse never rejects.
var Str = &Kind{
	Name: "str",
	Parse: func(text string) (interface{}, error) {
		return text, nil
	},
	Print: func(value interface{}) (string, error) {
		return value.(string), nil
	},
}

// sizeSuffixes maps a trailing unit suffix to its byte multiplier, in the
// same spirit as QEMU's size property kind.
var sizeSuffixes = map[byte]uint64{
	'k': 1 << 10, 'K': 1 << 10,
	'm': 1 << 20, 'M': 1 << 20,
	'g': 1 << 30, 'G': 1 << 30,
	't': 1 << 40, 'T': 1 << 40,
}

// Size is a byte-count property kind that accepts an optional k/m/g/t
// suffix, e.g. "256m" for 256 MiB.
var Size = &Kind{
	Name: "size",
	Parse: func(text string) (interface{}, error) {
		if text == "" {
			return nil, NewParseRejected("size", text, fmt.Errorf("empty size"))
		}
		last := text[len(text)-1]
		if mult, ok := sizeSuffixes[last]; ok {
			base, err := strconv.ParseUint(text[:len(text)-1], 0, 64)
			if err != nil {
				return nil, NewParseRejected("size", text, err)
			}
			return base * mult, nil
		}
		v, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return nil, NewParseRejected("size", text, err)
		}
		return v, nil
	},
	Print: func(value interface{}) (string, error) {
		return fmt.Sprintf("%d", value), nil
	},
}
