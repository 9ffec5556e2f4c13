package mqlite

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectEncodeCanonical(t *testing.T) {
	p := &ConnectPacket{
		CleanStart: true,
		KeepAlive:  60,
	}

	data, err := EncodePacket(p)
	require.NoError(t, err)

	// Clean start, keep-alive 60, empty properties, empty client id.
	want := []byte{
		0x10, 0x0D,
		0x00, 0x04, 'M', 'Q', 'T', 'T',
		0x05,
		0x02,
		0x00, 0x3C,
		0x00,
		0x00, 0x00,
	}
	assert.Equal(t, want, data)
}

func TestConnectRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		packet *ConnectPacket
	}{
		{
			name:   "minimal",
			packet: &ConnectPacket{CleanStart: true, KeepAlive: 60},
		},
		{
			name:   "client id",
			packet: &ConnectPacket{ClientID: "meter-17", CleanStart: true, KeepAlive: 30},
		},
		{
			name: "credentials",
			packet: &ConnectPacket{
				ClientID:   "meter-17",
				CleanStart: true,
				Username:   "svc",
				Password:   []byte("secret"),
			},
		},
		{
			name: "will",
			packet: &ConnectPacket{
				ClientID:    "meter-17",
				CleanStart:  true,
				WillFlag:    true,
				WillQoS:     1,
				WillRetain:  true,
				WillTopic:   "status/meter-17",
				WillPayload: []byte("offline"),
			},
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

func TestConnectDecodeErrors(t *testing.T) {
	base := &ConnectPacket{CleanStart: true, KeepAlive: 60}
	data, err := EncodePacket(base)
	require.NoError(t, err)

	t.Run("wrong protocol name", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[4] = 'X'
		_, _, err := ParsePacket(bad)
		assert.ErrorIs(t, err, ErrInvalidProtocolName)
	})

	t.Run("wrong protocol version", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[8] = 4
		_, _, err := ParsePacket(bad)
		assert.ErrorIs(t, err, ErrInvalidProtocolVersion)
	})

	t.Run("reserved connect flag", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[9] |= 0x01
		_, _, err := ParsePacket(bad)
		assert.ErrorIs(t, err, ErrInvalidConnectFlags)
	})

	t.Run("will qos without will flag", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[9] = 0x02 | 0x08 // clean start + will qos 1, no will flag
		_, _, err := ParsePacket(bad)
		assert.ErrorIs(t, err, ErrInvalidConnectFlags)
	})
}

func TestConnectValidate(t *testing.T) {
	p := &ConnectPacket{WillQoS: 3}
	assert.ErrorIs(t, p.Validate(), ErrInvalidConnectFlags)

	p = &ConnectPacket{WillFlag: true, WillTopic: "a/+"}
	assert.Error(t, p.Validate())
}
