package mqlite

import (
	"bytes"
	"errors"
	"io"
)

// CONNECT protocol constants.
const (
	protocolName    = "MQTT"
	protocolVersion = 5
)

// Connect flag bits.
const (
	connectFlagCleanStart = 0x02
	connectFlagWill       = 0x04
	connectFlagWillRetain = 0x20
	connectFlagPassword   = 0x40
	connectFlagUsername   = 0x80
)

// CONNECT packet errors.
var (
	ErrInvalidProtocolName    = errors.New("mqlite: invalid protocol name")
	ErrInvalidProtocolVersion = errors.New("mqlite: unsupported protocol version")
	ErrInvalidConnectFlags    = errors.New("mqlite: invalid connect flags")
)

// ConnectPacket represents an MQTT CONNECT packet. The Will fields are
// decoded when present so the packet round-trips, but the broker does
// not deliver Will messages.
// MQTT v5.0 spec: Section 3.1
type ConnectPacket struct {
	// ClientID is the client identifier. May be empty; the broker
	// assigns one.
	ClientID string

	// CleanStart requests a fresh session.
	CleanStart bool

	// KeepAlive is the keep alive interval in seconds. Zero disables
	// the keep alive mechanism.
	KeepAlive uint16

	// Props contains the CONNECT properties.
	Props Properties

	// Username and Password are present per the connect flags.
	Username string
	Password []byte

	// Will message fields, present when WillFlag is set.
	WillFlag    bool
	WillQoS     byte
	WillRetain  bool
	WillTopic   string
	WillPayload []byte
	WillProps   Properties
}

// Type returns the packet type.
func (p *ConnectPacket) Type() PacketType {
	return PacketCONNECT
}

func (p *ConnectPacket) connectFlags() byte {
	var flags byte

	if p.CleanStart {
		flags |= connectFlagCleanStart
	}

	if p.WillFlag {
		flags |= connectFlagWill
		flags |= (p.WillQoS & 0x03) << 3
		if p.WillRetain {
			flags |= connectFlagWillRetain
		}
	}

	if p.Username != "" {
		flags |= connectFlagUsername
	}

	if len(p.Password) > 0 {
		flags |= connectFlagPassword
	}

	return flags
}

func (p *ConnectPacket) setConnectFlags(flags byte) error {
	// Reserved bit must be zero.
	if flags&0x01 != 0 {
		return ErrInvalidConnectFlags
	}

	p.CleanStart = flags&connectFlagCleanStart != 0
	p.WillFlag = flags&connectFlagWill != 0
	p.WillQoS = (flags >> 3) & 0x03
	p.WillRetain = flags&connectFlagWillRetain != 0

	if !p.WillFlag && (p.WillQoS != 0 || p.WillRetain) {
		return ErrInvalidConnectFlags
	}

	if p.WillQoS > 2 {
		return ErrInvalidConnectFlags
	}

	return nil
}

// Encode writes the packet to the writer.
func (p *ConnectPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeString(&buf, protocolName); err != nil {
		return 0, err
	}
	buf.WriteByte(protocolVersion)
	buf.WriteByte(p.connectFlags())
	if _, err := encodeUint16(&buf, p.KeepAlive); err != nil {
		return 0, err
	}
	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	if _, err := encodeString(&buf, p.ClientID); err != nil {
		return 0, err
	}

	if p.WillFlag {
		if _, err := p.WillProps.Encode(&buf); err != nil {
			return 0, err
		}
		if _, err := encodeString(&buf, p.WillTopic); err != nil {
			return 0, err
		}
		if _, err := encodeBinary(&buf, p.WillPayload); err != nil {
			return 0, err
		}
	}

	if p.Username != "" {
		if _, err := encodeString(&buf, p.Username); err != nil {
			return 0, err
		}
	}

	if len(p.Password) > 0 {
		if _, err := encodeBinary(&buf, p.Password); err != nil {
			return 0, err
		}
	}

	header := FixedHeader{
		PacketType:      PacketCONNECT,
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
func (p *ConnectPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketCONNECT {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	protoName, n, err := decodeString(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if protoName != protocolName {
		return totalRead, ErrInvalidProtocolName
	}

	version, n, err := decodeByte(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if version != protocolVersion {
		return totalRead, ErrInvalidProtocolVersion
	}

	flags, n, err := decodeByte(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if err := p.setConnectFlags(flags); err != nil {
		return totalRead, err
	}

	usernameFlag := flags&connectFlagUsername != 0
	passwordFlag := flags&connectFlagPassword != 0

	p.KeepAlive, n, err = decodeUint16(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	p.ClientID, n, err = decodeString(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	if p.WillFlag {
		n, err = p.WillProps.Decode(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		p.WillTopic, n, err = decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		p.WillPayload, n, err = decodeBinary(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	if usernameFlag {
		p.Username, n, err = decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	if passwordFlag {
		p.Password, n, err = decodeBinary(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *ConnectPacket) Validate() error {
	if !p.WillFlag && (p.WillRetain || p.WillQoS != 0) {
		return ErrInvalidConnectFlags
	}

	if p.WillQoS > 2 {
		return ErrInvalidConnectFlags
	}

	if p.WillFlag {
		if err := ValidateTopicName(p.WillTopic); err != nil {
			return err
		}
	}

	return nil
}
