package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubackEncodeCanonical(t *testing.T) {
	p := &PubackPacket{PacketID: 42, ReasonCode: ReasonSuccess}

	data, err := EncodePacket(p)
	require.NoError(t, err)
	// Reason code and empty properties are always written.
	assert.Equal(t, []byte{0x40, 0x04, 0x00, 0x2A, 0x00, 0x00}, data)
}

func TestPubackRoundTrip(t *testing.T) {
	p := &PubackPacket{PacketID: 7, ReasonCode: ReasonNotAuthorized}

	data, err := EncodePacket(p)
	require.NoError(t, err)

	decoded, consumed, err := ParsePacket(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, p, decoded)
}

func TestPubackDecodeShortForms(t *testing.T) {
	t.Run("two byte body", func(t *testing.T) {
		decoded, _, err := ParsePacket([]byte{0x40, 0x02, 0x00, 0x2A})
		require.NoError(t, err)

		p, ok := decoded.(*PubackPacket)
		require.True(t, ok)
		assert.Equal(t, uint16(42), p.PacketID)
		assert.Equal(t, ReasonSuccess, p.ReasonCode)
	})

	t.Run("three byte body", func(t *testing.T) {
		decoded, _, err := ParsePacket([]byte{0x40, 0x03, 0x00, 0x2A, 0x80})
		require.NoError(t, err)

		p, ok := decoded.(*PubackPacket)
		require.True(t, ok)
		assert.Equal(t, uint16(42), p.PacketID)
		assert.Equal(t, ReasonUnspecifiedError, p.ReasonCode)
	})
}
