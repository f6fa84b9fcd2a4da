// Package chunk implements the length-prefixed chunk stream used by the mesh
// file format: endian-aware scalar and array transfer, null-terminated
// strings, chunk headers with one chunk of lookahead, and an optional
// inner-chunk size validation stack.
package chunk

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the on-wire size of a chunk header: u16 id + u32 length.
// The declared length of every chunk includes these bytes.
const HeaderSize = 2 + 4

// Scalar sizes used when precomputing chunk lengths.
const (
	SizeBool    = 1
	SizeUint16  = 2
	SizeUint32  = 4
	SizeFloat32 = 4
)

// StringSize returns the encoded size of s including its terminator.
func StringSize(s string) int {
	return len(s) + 1
}

// Endian selects the byte order used when writing a stream.
type Endian int

const (
	EndianNative Endian = iota // Host byte order
	EndianBig                  // Big endian
	EndianLittle               // Little endian
)

// String returns a human-readable endian name.
func (e Endian) String() string {
	switch e {
	case EndianNative:
		return "native"
	case EndianBig:
		return "big"
	case EndianLittle:
		return "little"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// ParseEndian converts a config string into an Endian.
func ParseEndian(s string) (Endian, error) {
	switch s {
	case "", "native":
		return EndianNative, nil
	case "big":
		return EndianBig, nil
	case "little":
		return EndianLittle, nil
	default:
		return EndianNative, Errorf(ErrInvalidParameters, "ParseEndian", "unknown endian mode %q", s)
	}
}

var hostLittle = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// HostEndian returns the host's actual byte order.
func HostEndian() Endian {
	if hostLittle {
		return EndianLittle
	}
	return EndianBig
}

// Resolve maps EndianNative onto the host's byte order.
func (e Endian) Resolve() Endian {
	if e == EndianNative {
		return HostEndian()
	}
	return e
}

// ByteOrder returns the binary.ByteOrder for a resolved endian mode.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e.Resolve() == EndianBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// FlipEndian byte-swaps count consecutive elements of width bytes in place.
// Widths other than 2, 4 and 8 are left untouched, so byte arrays are never
// swapped.
func FlipEndian(data []byte, width, count int) {
	switch width {
	case 2, 4, 8:
	default:
		return
	}
	for i := 0; i < count; i++ {
		elem := data[i*width : (i+1)*width]
		for a, b := 0, width-1; a < b; a, b = a+1, b-1 {
			elem[a], elem[b] = elem[b], elem[a]
		}
	}
}
