package mqlite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Codec errors.
var (
	// ErrTruncated reports a packet whose declared length ends before
	// its fields do, or a stream that ended mid-packet.
	ErrTruncated = errors.New("mqlite: truncated packet")

	// ErrPacketTooLarge reports a packet above the configured maximum:
	// on read, its remaining length; on write, its whole encoded size.
	ErrPacketTooLarge = errors.New("mqlite: packet exceeds maximum size")

	// ErrUnsupportedPacketType reports a well-formed packet of a type
	// the broker does not implement (PUBREC, PUBREL, PUBCOMP, AUTH).
	// The body has been consumed; the caller may ignore the packet and
	// keep the connection.
	ErrUnsupportedPacketType = errors.New("mqlite: unsupported packet type")
)

// IgnorablePacketError reports whether a ReadPacket error leaves the
// stream positioned at the next packet, so the connection can be kept:
// unknown or unsupported types and reserved flag values are skipped,
// everything else is fatal for the connection.
func IgnorablePacketError(err error) bool {
	return errors.Is(err, ErrUnknownPacketType) ||
		errors.Is(err, ErrUnsupportedPacketType) ||
		errors.Is(err, ErrInvalidPacketFlags)
}

// ReadPacket reads one complete MQTT packet from r. The reader is
// expected to be a buffered per-connection stream: a packet split
// across arbitrary chunk boundaries decodes identically because reads
// block until the declared remaining length is available. Exactly one
// packet is consumed; trailing bytes stay in the stream.
//
// If maxSize is greater than 0, packets whose remaining length exceeds
// maxSize return ErrPacketTooLarge without the body being read.
func ReadPacket(r io.Reader, maxSize uint32) (Packet, int, error) {
	var header FixedHeader
	n, err := header.Decode(r)
	if err != nil {
		// A clean EOF before the first header byte is an orderly
		// close, not a truncated packet.
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		if errors.Is(err, ErrUnknownPacketType) {
			// Skip the declared body so the stream stays aligned.
			skipped, skipErr := skipBody(r, header.RemainingLength)
			n += skipped
			if skipErr != nil {
				return nil, n, streamErr(skipErr)
			}
			return nil, n, fmt.Errorf("%w: %d", ErrUnknownPacketType, header.PacketType)
		}
		return nil, n, streamErr(err)
	}

	if maxSize > 0 && header.RemainingLength > maxSize {
		return nil, n, ErrPacketTooLarge
	}

	if err := header.ValidateFlags(); err != nil {
		skipped, skipErr := skipBody(r, header.RemainingLength)
		n += skipped
		if skipErr != nil {
			return nil, n, streamErr(skipErr)
		}
		return nil, n, fmt.Errorf("%w: %s", err, header.PacketType)
	}

	packet := newPacket(header.PacketType)
	if packet == nil {
		skipped, skipErr := skipBody(r, header.RemainingLength)
		n += skipped
		if skipErr != nil {
			return nil, n, streamErr(skipErr)
		}
		return nil, n, fmt.Errorf("%w: %s", ErrUnsupportedPacketType, header.PacketType)
	}

	body := make([]byte, header.RemainingLength)
	if header.RemainingLength > 0 {
		rn, err := io.ReadFull(r, body)
		n += rn
		if err != nil {
			return nil, n, streamErr(err)
		}
	}

	if _, err := packet.Decode(bytes.NewReader(body), header); err != nil {
		return nil, n, bodyErr(err)
	}

	return packet, n, nil
}

// WritePacket writes one complete MQTT packet to w. Returns the number
// of bytes written.
func WritePacket(w io.Writer, packet Packet, maxSize uint32) (int, error) {
	if err := packet.Validate(); err != nil {
		return 0, err
	}

	if maxSize > 0 {
		var buf bytes.Buffer
		n, err := packet.Encode(&buf)
		if err != nil {
			return 0, err
		}
		if uint32(n) > maxSize {
			return 0, ErrPacketTooLarge
		}
		return w.Write(buf.Bytes())
	}

	return packet.Encode(w)
}

// ParsePacket decodes one packet from the front of buf and returns the
// packet together with the number of bytes it occupied. Trailing bytes
// belong to the next packet.
func ParsePacket(buf []byte) (Packet, int, error) {
	r := bytes.NewReader(buf)
	pkt, _, err := ReadPacket(r, 0)
	consumed := len(buf) - r.Len()
	return pkt, consumed, err
}

// EncodePacket encodes a packet into a fresh buffer.
func EncodePacket(packet Packet) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WritePacket(&buf, packet, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newPacket returns an empty packet for the types the broker handles,
// or nil for recognized-but-unsupported types.
func newPacket(t PacketType) Packet {
	switch t {
	case PacketCONNECT:
		return &ConnectPacket{}
	case PacketCONNACK:
		return &ConnackPacket{}
	case PacketPUBLISH:
		return &PublishPacket{}
	case PacketPUBACK:
		return &PubackPacket{}
	case PacketSUBSCRIBE:
		return &SubscribePacket{}
	case PacketSUBACK:
		return &SubackPacket{}
	case PacketUNSUBSCRIBE:
		return &UnsubscribePacket{}
	case PacketUNSUBACK:
		return &UnsubackPacket{}
	case PacketPINGREQ:
		return &PingreqPacket{}
	case PacketPINGRESP:
		return &PingrespPacket{}
	case PacketDISCONNECT:
		return &DisconnectPacket{}
	default:
		return nil
	}
}

// skipBody discards the remaining length of a packet that will not be
// decoded.
func skipBody(r io.Reader, length uint32) (int, error) {
	if length == 0 {
		return 0, nil
	}
	n, err := io.CopyN(io.Discard, r, int64(length))
	return int(n), err
}

// streamErr maps end-of-stream conditions onto ErrTruncated; transport
// errors pass through.
func streamErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// bodyErr maps a short body onto ErrTruncated: the remaining length
// region ended before the packet's fields did. Field validation errors
// pass through.
func bodyErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
