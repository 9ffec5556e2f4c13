package mqlite

import (
	"errors"
	"io"
)

// ErrPropertiesTooLarge is returned when a property block exceeds the
// variable byte integer range.
var ErrPropertiesTooLarge = errors.New("mqlite: property block too large")

// Properties is an MQTT v5.0 property block. The broker does not act on
// individual properties: inbound blocks are consumed as an opaque
// varint-prefixed byte region and carried through unchanged, and packets
// the broker originates are written with an empty block. Keeping the raw
// bytes preserves the parse/encode round trip for clients that do send
// properties.
type Properties struct {
	raw []byte
}

// Len returns the byte length of the property data, excluding the
// length prefix.
func (p *Properties) Len() int {
	return len(p.raw)
}

// Encode writes the property block to w: the data length as a variable
// byte integer followed by the data. An empty block is a single zero byte.
func (p *Properties) Encode(w io.Writer) (int, error) {
	if len(p.raw) > maxVarint {
		return 0, ErrPropertiesTooLarge
	}

	n, err := encodeVarint(w, uint32(len(p.raw)))
	if err != nil {
		return n, err
	}

	if len(p.raw) == 0 {
		return n, nil
	}

	n2, err := w.Write(p.raw)
	return n + n2, err
}

// Decode reads the property block from r, retaining the data bytes
// without interpreting them.
func (p *Properties) Decode(r io.Reader) (int, error) {
	length, n, err := decodeVarint(r)
	if err != nil {
		return n, err
	}

	if length == 0 {
		p.raw = nil
		return n, nil
	}

	p.raw = make([]byte, length)
	n2, err := io.ReadFull(r, p.raw)
	n += n2
	if err != nil {
		return n, err
	}

	return n, nil
}

// size returns the encoded size of the block including the length prefix.
func (p *Properties) size() int {
	return varintSize(uint32(len(p.raw))) + len(p.raw)
}
