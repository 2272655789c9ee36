package versionmap

import (
	"fmt"
	"math"
	"strconv"
)

// StackBase is the first legacy index that denotes an operand-stack slot.
const StackBase = 10000

// Domain selects one of the three key spaces.
type Domain uint8

const (
	// Local is the domain of true local variables.
	Local Domain = iota
	// Stack is the domain of operand-stack slots.
	Stack
	// Field is the domain of synthetic field-access slots.
	Field

	numDomains = 3
)

func (d Domain) String() string {
	switch d {
	case Local:
		return "local"
	case Stack:
		return "stack"
	case Field:
		return "field"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// iterationOrder is the fixed order in which All visits the domains.
var iterationOrder = [numDomains]Domain{Field, Stack, Local}

// Key addresses one slot.
type Key struct {
	Domain Domain
	Index  uint32
}

// LocalKey returns the key of local variable i.
func LocalKey(i uint32) Key { return Key{Domain: Local, Index: i} }

// StackKey returns the key of stack slot i.
func StackKey(i uint32) Key { return Key{Domain: Stack, Index: i} }

// FieldKey returns the key of synthetic field slot i. Field indices start at 1.
func FieldKey(i uint32) Key { return Key{Domain: Field, Index: i} }

// KeyFromLegacy splits a signed front-end variable index into a Key.
func KeyFromLegacy(k int32) Key {
	switch {
	case k < 0:
		return FieldKey(uint32(-int64(k)))
	case k >= StackBase:
		return StackKey(uint32(k - StackBase))
	default:
		return LocalKey(uint32(k))
	}
}

// Legacy returns the signed front-end index of k.
// It panics for keys that have no legacy representation.
func (k Key) Legacy() int32 {
	v, err := k.legacy()
	if err != nil {
		panic(err)
	}
	return v
}

func (k Key) legacy() (int32, error) {
	switch k.Domain {
	case Local:
		if k.Index >= StackBase {
			return 0, fmt.Errorf("versionmap: local index %d collides with the stack range", k.Index)
		}
		return int32(k.Index), nil
	case Stack:
		if k.Index > math.MaxInt32-StackBase {
			return 0, fmt.Errorf("versionmap: stack index %d out of range", k.Index)
		}
		return StackBase + int32(k.Index), nil
	case Field:
		if k.Index == 0 || k.Index > math.MaxInt32 {
			return 0, fmt.Errorf("versionmap: field index %d has no legacy representation", k.Index)
		}
		return -int32(k.Index), nil
	default:
		return 0, fmt.Errorf("versionmap: invalid domain %d", k.Domain)
	}
}

// MarshalJSON encodes k as its legacy signed index.
func (k Key) MarshalJSON() ([]byte, error) {
	v, err := k.legacy()
	if err != nil {
		return nil, err
	}
	return strconv.AppendInt(nil, int64(v), 10), nil
}

// UnmarshalJSON decodes a legacy signed index.
func (k *Key) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 32)
	if err != nil {
		return fmt.Errorf("versionmap: bad key %s: %w", b, err)
	}
	*k = KeyFromLegacy(int32(v))
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Domain, k.Index)
}
