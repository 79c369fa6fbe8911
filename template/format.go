package template

import (
	"strings"

	"github.com/high-horse/fpextract/fault"
)

// Format selects a serialized form.
type Format int

const (
	Binary Format = iota
	CBOR
)

func (f Format) String() string {
	if f == CBOR {
		return "cbor"
	}
	return "binary"
}

// ParseFormat accepts "binary" or "cbor", case-insensitively. The empty
// string means Binary.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "binary":
		return Binary, nil
	case "cbor":
		return CBOR, nil
	}
	return Binary, fault.Invalid(fault.StageConfig, "unknown template format %q", s)
}

// Marshal encodes t in the given format.
func Marshal(t *Template, f Format) ([]byte, error) {
	if f == CBOR {
		return EncodeCBOR(t)
	}
	return Encode(t)
}

// Unmarshal decodes b in the given format.
func Unmarshal(b []byte, f Format) (*Template, error) {
	if f == CBOR {
		return DecodeCBOR(b)
	}
	return Decode(b)
}
