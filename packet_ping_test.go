package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingreqRoundTrip(t *testing.T) {
	data, err := EncodePacket(&PingreqPacket{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC0, 0x00}, data)

	decoded, consumed, err := ParsePacket(data)
	require.NoError(t, err)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, &PingreqPacket{}, decoded)
}

func TestPingrespRoundTrip(t *testing.T) {
	data, err := EncodePacket(&PingrespPacket{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xD0, 0x00}, data)

	decoded, consumed, err := ParsePacket(data)
	require.NoError(t, err)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, &PingrespPacket{}, decoded)
}
