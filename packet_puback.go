package mqlite

import (
	"bytes"
	"io"
)

// PubackPacket represents an MQTT PUBACK packet.
// MQTT v5.0 spec: Section 3.4
type PubackPacket struct {
	// PacketID identifies the PUBLISH being acknowledged.
	PacketID uint16

	// ReasonCode is the acknowledge reason code.
	ReasonCode ReasonCode

	// Props contains the PUBACK properties.
	Props Properties
}

// Type returns the packet type.
func (p *PubackPacket) Type() PacketType {
	return PacketPUBACK
}

// Encode writes the packet to the writer. The reason code and an empty
// property block are always written, even for success.
func (p *PubackPacket) Encode(w io.Writer) (int, error) {
	var buf bytes.Buffer

	if _, err := encodeUint16(&buf, p.PacketID); err != nil {
		return 0, err
	}
	buf.WriteByte(byte(p.ReasonCode))
	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	header := FixedHeader{
		PacketType:      PacketPUBACK,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet body from the reader. A remaining length of 2
// is the short form: success with no properties. A remaining length of
// 3 omits only the property block.
func (p *PubackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBACK {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	id, n, err := decodeUint16(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.PacketID = id

	if header.RemainingLength < 3 {
		p.ReasonCode = ReasonSuccess
		return totalRead, nil
	}

	reason, n, err := decodeByte(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.ReasonCode = ReasonCode(reason)

	if header.RemainingLength < 4 {
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
func (p *PubackPacket) Validate() error {
	return nil
}
