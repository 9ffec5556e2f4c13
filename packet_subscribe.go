package mqlite

import (
	"bytes"
	"errors"
	"io"
)

// SUBSCRIBE packet errors.
var (
	ErrNoSubscriptions           = errors.New("mqlite: subscribe packet contains no topic filters")
	ErrInvalidSubscriptionOption = errors.New("mqlite: invalid subscription options")
	ErrPacketIDZero              = errors.New("mqlite: packet identifier must be nonzero")
)

// Subscription is a single topic filter entry in a SUBSCRIBE packet.
type Subscription struct {
	// TopicFilter is the requested filter. This broker matches exactly;
	// wildcard filters are refused at subscribe time.
	TopicFilter string

	// QoS is the maximum QoS the subscriber wants to receive.
	QoS byte
}

// SubscribePacket represents an MQTT SUBSCRIBE packet.
// MQTT v5.0 spec: Section 3.8
type SubscribePacket struct {
	// PacketID is the packet identifier, always nonzero.
	PacketID uint16

	// Subscriptions holds the requested topic filters in wire order.
	Subscriptions []Subscription

	// Props contains the SUBSCRIBE properties.
	Props Properties
}

// Type returns the packet type.
func (p *SubscribePacket) Type() PacketType {
	return PacketSUBSCRIBE
}

// Encode writes the packet to the writer.
func (p *SubscribePacket) Encode(w io.Writer) (int, error) {
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

	for _, sub := range p.Subscriptions {
		if _, err := encodeString(&buf, sub.TopicFilter); err != nil {
			return 0, err
		}
		buf.WriteByte(sub.QoS & 0x03)
	}

	header := FixedHeader{
		PacketType:      PacketSUBSCRIBE,
		Flags:           0x02,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet body from the reader. Topic entries are read
// until the declared remaining length is consumed.
func (p *SubscribePacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketSUBSCRIBE {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	id, n, err := decodeUint16(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if id == 0 {
		return totalRead, ErrPacketIDZero
	}
	p.PacketID = id

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	for totalRead < int(header.RemainingLength) {
		filter, n, err := decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		opts, n, err := decodeByte(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		// Subscription options: QoS in bits 0-1, reserved bits 6-7
		// must be zero. The v5 option bits (NoLocal, RetainAsPublished,
		// RetainHandling) are accepted and ignored.
		if opts&0xC0 != 0 {
			return totalRead, ErrInvalidSubscriptionOption
		}
		qos := opts & 0x03
		if qos > 2 {
			return totalRead, ErrInvalidQoS
		}

		p.Subscriptions = append(p.Subscriptions, Subscription{
			TopicFilter: filter,
			QoS:         qos,
		})
	}

	if len(p.Subscriptions) == 0 {
		return totalRead, ErrNoSubscriptions
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *SubscribePacket) Validate() error {
	if p.PacketID == 0 {
		return ErrPacketIDZero
	}

	if len(p.Subscriptions) == 0 {
		return ErrNoSubscriptions
	}

	for _, sub := range p.Subscriptions {
		if sub.TopicFilter == "" {
			return ErrEmptyTopic
		}
		if sub.QoS > 2 {
			return ErrInvalidQoS
		}
	}

	return nil
}
