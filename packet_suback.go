package mqlite

import (
	"bytes"
	"errors"
	"io"
)

// ErrNoReasonCodes is returned when an acknowledgement carries no
// per-topic reason codes.
var ErrNoReasonCodes = errors.New("mqlite: acknowledgement contains no reason codes")

// SubackPacket represents an MQTT SUBACK packet.
// MQTT v5.0 spec: Section 3.9
type SubackPacket struct {
	// PacketID echoes the SUBSCRIBE packet identifier.
	PacketID uint16

	// ReasonCodes holds one code per requested filter, in request order.
	ReasonCodes []ReasonCode

	// Props contains the SUBACK properties.
	Props Properties
}

// Type returns the packet type.
func (p *SubackPacket) Type() PacketType {
	return PacketSUBACK
}

// Encode writes the packet to the writer.
func (p *SubackPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeUint16(&buf, p.PacketID); err != nil {
		return 0, err
	}
	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}
	for _, code := range p.ReasonCodes {
		buf.WriteByte(byte(code))
	}

	header := FixedHeader{
		PacketType:      PacketSUBACK,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet body from the reader.
func (p *SubackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketSUBACK {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	id, n, err := decodeUint16(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.PacketID = id

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	for totalRead < int(header.RemainingLength) {
		code, n, err := decodeByte(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		p.ReasonCodes = append(p.ReasonCodes, ReasonCode(code))
	}

	if len(p.ReasonCodes) == 0 {
		return totalRead, ErrNoReasonCodes
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *SubackPacket) Validate() error {
	if len(p.ReasonCodes) == 0 {
		return ErrNoReasonCodes
	}
	return nil
}
