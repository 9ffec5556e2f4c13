package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		packet *PublishPacket
	}{
		{
			name:   "qos0",
			packet: &PublishPacket{Topic: "x", Payload: []byte("hi")},
		},
		{
			name:   "qos0 empty payload",
			packet: &PublishPacket{Topic: "y", Retain: true},
		},
		{
			name:   "qos1",
			packet: &PublishPacket{Topic: "t", Payload: []byte("p"), QoS: 1, PacketID: 42},
		},
		{
			name:   "qos1 dup retain",
			packet: &PublishPacket{Topic: "a/b/c", Payload: []byte{0x00, 0xFF}, QoS: 1, DUP: true, Retain: true, PacketID: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePacket(tt.packet)
			require.NoError(t, err)

			decoded, consumed, err := ParsePacket(data)
			require.NoError(t, err)
			assert.Equal(t, len(data), consumed)
			assert.Equal(t, tt.packet, decoded)
		})
	}
}

func TestPublishEncodeCanonical(t *testing.T) {
	p := &PublishPacket{Topic: "x", Payload: []byte("hi")}

	data, err := EncodePacket(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x06, 0x00, 0x01, 'x', 0x00, 'h', 'i'}, data)
}

func TestPublishDecodeInvalidTopic(t *testing.T) {
	tests := []struct {
		name  string
		topic string
	}{
		{name: "wildcard plus", topic: "a/+"},
		{name: "wildcard hash", topic: "a/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Build the wire bytes by hand; Encode refuses these topics.
			body := []byte{0x00, byte(len(tt.topic))}
			body = append(body, tt.topic...)
			body = append(body, 0x00) // empty properties
			data := append([]byte{0x30, byte(len(body))}, body...)

			_, _, err := ParsePacket(data)
			assert.ErrorIs(t, err, ErrInvalidTopicName)
		})
	}
}

func TestPublishDecodeEmptyTopic(t *testing.T) {
	data := []byte{0x30, 0x03, 0x00, 0x00, 0x00}
	_, _, err := ParsePacket(data)
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestPublishValidate(t *testing.T) {
	assert.ErrorIs(t, (&PublishPacket{Topic: "t", QoS: 1}).Validate(), ErrPacketIDRequired)
	assert.ErrorIs(t, (&PublishPacket{Topic: "t", QoS: 3, PacketID: 1}).Validate(), ErrInvalidQoS)
	assert.ErrorIs(t, (&PublishPacket{Topic: "t", DUP: true}).Validate(), ErrInvalidPacketFlags)
	assert.ErrorIs(t, (&PublishPacket{Topic: "a/+"}).Validate(), ErrInvalidTopicName)
}

func TestPublishToMessage(t *testing.T) {
	p := &PublishPacket{Topic: "t", Payload: []byte("v"), QoS: 1, Retain: true, PacketID: 3}
	msg := p.ToMessage()

	assert.Equal(t, &Message{Topic: "t", Payload: []byte("v"), QoS: 1, Retain: true}, msg)
}
