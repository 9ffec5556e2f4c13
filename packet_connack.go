package mqlite

import (
	"bytes"
	"errors"
	"io"
)

// ErrInvalidConnackFlags is returned when the acknowledge flags byte has
// reserved bits set.
var ErrInvalidConnackFlags = errors.New("mqlite: invalid connack flags")

// ConnackPacket represents an MQTT CONNACK packet.
// MQTT v5.0 spec: Section 3.2
type ConnackPacket struct {
	// SessionPresent indicates a resumed session. This broker never
	// resumes sessions, so packets it originates carry false.
	SessionPresent bool

	// ReasonCode is the connect reason code.
	ReasonCode ReasonCode

	// Props contains the CONNACK properties.
	Props Properties
}

// Type returns the packet type.
func (p *ConnackPacket) Type() PacketType {
	return PacketCONNACK
}

// Encode writes the packet to the writer.
func (p *ConnackPacket) Encode(w io.Writer) (int, error) {
	var buf bytes.Buffer

	var ackFlags byte
	if p.SessionPresent {
		ackFlags = 0x01
	}
	buf.WriteByte(ackFlags)
	buf.WriteByte(byte(p.ReasonCode))

	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	header := FixedHeader{
		PacketType:      PacketCONNACK,
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
func (p *ConnackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketCONNACK {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	ackFlags, n, err := decodeByte(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if ackFlags&0xFE != 0 {
		return totalRead, ErrInvalidConnackFlags
	}
	p.SessionPresent = ackFlags&0x01 != 0

	reason, n, err := decodeByte(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.ReasonCode = ReasonCode(reason)

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *ConnackPacket) Validate() error {
	return nil
}
