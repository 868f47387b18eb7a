package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedDType reports a sample type name that cannot be interpreted.
var ErrUnsupportedDType = errors.New("unsupported dtype")

// DType is a signed little-endian integer sample type.
type DType int

const (
	Int16 DType = 16
	Int32 DType = 32
)

// DefaultDType is used when a requested write type is not storable.
const DefaultDType = Int32

// String returns the numpy-style type name.
func (d DType) String() string {
	return fmt.Sprintf("int%d", int(d))
}

// Bits returns the sample width in bits.
func (d DType) Bits() int {
	return int(d)
}

// Size returns the sample width in bytes.
func (d DType) Size() int {
	return int(d) / 8
}

// Valid reports whether the type can be stored in a Neuroscope .dat file.
func (d DType) Valid() bool {
	return d == Int16 || d == Int32
}

// FromBits maps a bit depth to its sample type.
func FromBits(bits int) (DType, error) {
	d := DType(bits)
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedDType, bits)
	}
	return d, nil
}

// ParseDType parses a storable type name such as "int16" or "int32".
func ParseDType(name string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int16", "i2", "<i2", "short":
		return Int16, nil
	case "int32", "i4", "<i4", "int":
		return Int32, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, name)
}

// CoerceDType parses name and falls back to DefaultDType when it is not
// storable. The boolean reports whether a fallback happened.
func CoerceDType(name string) (DType, bool) {
	d, err := ParseDType(name)
	if err != nil {
		return DefaultDType, true
	}
	return d, false
}
