package mqlite

import (
	"bytes"
	"errors"
	"io"
)

// PUBLISH packet errors.
var (
	ErrInvalidQoS       = errors.New("mqlite: invalid QoS level")
	ErrPacketIDRequired = errors.New("mqlite: packet identifier required for QoS > 0")
)

// PublishPacket represents an MQTT PUBLISH packet.
// MQTT v5.0 spec: Section 3.3
type PublishPacket struct {
	// Topic is the topic name. Must be non-empty and wildcard free.
	Topic string

	// Payload is the application message. Arbitrary bytes, may be empty.
	Payload []byte

	// QoS is the quality of service level.
	QoS byte

	// Retain marks the message for the retained store.
	Retain bool

	// DUP marks a retransmission.
	DUP bool

	// PacketID is the packet identifier, present on the wire only when
	// QoS > 0.
	PacketID uint16

	// Props contains the PUBLISH properties.
	Props Properties
}

// Type returns the packet type.
func (p *PublishPacket) Type() PacketType {
	return PacketPUBLISH
}

// Encode writes the packet to the writer.
func (p *PublishPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeString(&buf, p.Topic); err != nil {
		return 0, err
	}

	if p.QoS > 0 {
		if _, err := encodeUint16(&buf, p.PacketID); err != nil {
			return 0, err
		}
	}

	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	buf.Write(p.Payload)

	header := FixedHeader{
		PacketType:      PacketPUBLISH,
		Flags:           publishFlags(p.DUP, p.QoS, p.Retain),
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet body from the reader. The payload is every
// byte after the property block up to the declared remaining length.
func (p *PublishPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBLISH {
		return 0, ErrInvalidPacketType
	}

	p.DUP = header.DUP()
	p.QoS = header.QoS()
	p.Retain = header.Retain()

	if p.QoS > 2 {
		return 0, ErrInvalidQoS
	}

	var totalRead int

	topic, n, err := decodeString(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if err := ValidateTopicName(topic); err != nil {
		return totalRead, err
	}
	p.Topic = topic

	if p.QoS > 0 {
		p.PacketID, n, err = decodeUint16(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	payloadLen := int(header.RemainingLength) - totalRead
	if payloadLen < 0 {
		return totalRead, ErrVarintMalformed
	}
	if payloadLen > 0 {
		p.Payload = make([]byte, payloadLen)
		n, err = io.ReadFull(r, p.Payload)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *PublishPacket) Validate() error {
	if err := ValidateTopicName(p.Topic); err != nil {
		return err
	}

	if p.QoS > 2 {
		return ErrInvalidQoS
	}

	if p.QoS == 0 && p.DUP {
		return ErrInvalidPacketFlags
	}

	if p.QoS > 0 && p.PacketID == 0 {
		return ErrPacketIDRequired
	}

	return nil
}

// ToMessage converts the packet to a routable Message.
func (p *PublishPacket) ToMessage() *Message {
	return &Message{
		Topic:   p.Topic,
		Payload: p.Payload,
		QoS:     p.QoS,
		Retain:  p.Retain,
	}
}
