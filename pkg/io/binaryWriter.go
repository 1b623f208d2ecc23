package io

import (
	"encoding/binary"
	"io"
)

// BinWriter wraps an io.Writer keeping the first write error in Err, all
// subsequent writes are no-op after it. Node records are serialized with it.
type BinWriter struct {
	w   io.Writer
	Err error
	uv  [9]byte
}

// NewBinWriterFromIO makes a BinWriter from io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(u8 byte) {
	w.uv[0] = u8
	w.WriteBytes(w.uv[:1])
}

// WriteBytes writes b as is, without length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteVarBytes writes b prefixed with its varint-encoded length, it's
// decoded with BinReader.ReadVarBytes.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.writeVarUint(uint64(len(b)))
	w.WriteBytes(b)
}

// writeVarUint writes val using 1, 3, 5 or 9 bytes: values below 0xfd are
// written as a single byte, larger ones get 0xfd, 0xfe or 0xff marker
// followed by little-endian uint16, uint32 or uint64.
func (w *BinWriter) writeVarUint(val uint64) {
	if w.Err != nil {
		return
	}
	var n int
	switch {
	case val < 0xfd:
		w.uv[0] = byte(val)
		n = 1
	case val < 0xffff:
		w.uv[0] = 0xfd
		binary.LittleEndian.PutUint16(w.uv[1:], uint16(val))
		n = 3
	case val < 0xffffffff:
		w.uv[0] = 0xfe
		binary.LittleEndian.PutUint32(w.uv[1:], uint32(val))
		n = 5
	default:
		w.uv[0] = 0xff
		binary.LittleEndian.PutUint64(w.uv[1:], val)
		n = 9
	}
	w.WriteBytes(w.uv[:n])
}
