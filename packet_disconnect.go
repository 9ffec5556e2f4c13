package mqlite

import (
	"bytes"
	"io"
)

// DisconnectPacket represents an MQTT DISCONNECT packet.
// MQTT v5.0 spec: Section 3.14
type DisconnectPacket struct {
	// ReasonCode is the disconnect reason code.
	ReasonCode ReasonCode

	// Props contains the DISCONNECT properties.
	Props Properties
}

// Type returns the packet type.
func (p *DisconnectPacket) Type() PacketType {
	return PacketDISCONNECT
}

// Encode writes the packet to the writer. A success disconnect with no
// properties is written in the zero-byte short form.
func (p *DisconnectPacket) Encode(w io.Writer) (int, error) {
	if p.ReasonCode == ReasonSuccess && p.Props.Len() == 0 {
		header := FixedHeader{PacketType: PacketDISCONNECT}
		return header.Encode(w)
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(p.ReasonCode))
	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	header := FixedHeader{
		PacketType:      PacketDISCONNECT,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet body from the reader. A remaining length of
// zero means normal disconnection; a length of one carries only the
// reason code.
func (p *DisconnectPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketDISCONNECT {
		return 0, ErrInvalidPacketType
	}

	if header.RemainingLength == 0 {
		p.ReasonCode = ReasonSuccess
		return 0, nil
	}

	var totalRead int

	reason, n, err := decodeByte(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.ReasonCode = ReasonCode(reason)

	if header.RemainingLength < 2 {
		return totalRead, nil
	}

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *DisconnectPacket) Validate() error {
	return nil
}
