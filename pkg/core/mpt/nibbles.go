package mpt

import (
	"errors"
	"fmt"
)

// Hex-prefix flags stored in the high nibble of the first encoded byte.
const (
	flagOdd      = 0x1
	flagTerminal = 0x2
)

// ErrInvalidPath is returned when a hex-prefix encoded path can't be decoded.
var ErrInvalidPath = errors.New("invalid encoded path")

// toNibbles mangles the path by splitting every byte into 2 containing low- and high- 4-byte part.
func toNibbles(path []byte) []byte {
	result := make([]byte, len(path)*2)
	for i := range path {
		result[i*2] = path[i] >> 4
		result[i*2+1] = path[i] & 0x0F
	}
	return result
}

// fromNibbles performs an operation opposite to toNibbles, the path must
// have even length.
func fromNibbles(path []byte) ([]byte, error) {
	if len(path)%2 != 0 {
		return nil, fmt.Errorf("odd nibble path length: %d", len(path))
	}
	result := make([]byte, len(path)/2)
	for i := range result {
		result[i] = path[2*i]<<4 | path[2*i+1]&0x0F
	}
	return result, nil
}

// EncodePath returns hex-prefix encoding of the nibble sequence. The first
// byte holds the flags in its high nibble (odd length and terminal node) and,
// for odd-length paths, the first nibble in its low one. The rest of the
// nibbles are packed in pairs. Terminal paths are the ones of leaf nodes.
func EncodePath(nibbles []byte, terminal bool) []byte {
	var flags byte
	if terminal {
		flags |= flagTerminal
	}
	res := make([]byte, len(nibbles)/2+1)
	if len(nibbles)%2 == 1 {
		flags |= flagOdd
		res[0] = nibbles[0] & 0x0F
		nibbles = nibbles[1:]
	}
	res[0] |= flags << 4
	for i := 0; i < len(nibbles); i += 2 {
		res[i/2+1] = nibbles[i]<<4 | nibbles[i+1]&0x0F
	}
	return res
}

// DecodePath decodes hex-prefix encoded path returning nibbles and the
// terminal flag.
func DecodePath(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	flags := data[0] >> 4
	if flags > flagOdd|flagTerminal {
		return nil, false, fmt.Errorf("%w: unknown flags %x", ErrInvalidPath, flags)
	}
	var res []byte
	if flags&flagOdd != 0 {
		res = make([]byte, 1, 2*len(data)-1)
		res[0] = data[0] & 0x0F
	} else {
		if data[0]&0x0F != 0 {
			return nil, false, fmt.Errorf("%w: non-zero padding", ErrInvalidPath)
		}
		res = make([]byte, 0, 2*len(data)-2)
	}
	res = append(res, toNibbles(data[1:])...)
	return res, flags&flagTerminal != 0, nil
}

// lcp returns the longest common prefix of a and b.
// Note: it does no allocations.
func lcp(a, b []byte) []byte {
	if len(a) < len(b) {
		return lcp(b, a)
	}

	var i int
	for i = 0; i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
	}

	return a[:i]
}

// commonPrefix returns the longest sequence every word starts with. Words
// are reduced pairwise, left to right.
func commonPrefix(words ...[]byte) []byte {
	if len(words) == 0 {
		return []byte{}
	}
	prefix := words[0]
	for _, w := range words[1:] {
		prefix = lcp(prefix, w)
		if len(prefix) == 0 {
			break
		}
	}
	return copySlice(prefix)
}

// splitPath returns the selector nibble and the rest of the path.
func splitPath(path []byte) (byte, []byte) {
	return path[0], path[1:]
}

// copySlice returns a copy of a, it's never nil.
func copySlice(a []byte) []byte {
	b := make([]byte, len(a))
	copy(b, a)
	return b
}
