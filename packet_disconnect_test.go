package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectShortForm(t *testing.T) {
	data, err := EncodePacket(&DisconnectPacket{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xE0, 0x00}, data)

	decoded, _, err := ParsePacket(data)
	require.NoError(t, err)
	assert.Equal(t, &DisconnectPacket{ReasonCode: ReasonSuccess}, decoded)
}

func TestDisconnectWithReason(t *testing.T) {
	p := &DisconnectPacket{ReasonCode: ReasonServerShuttingDown}

	data, err := EncodePacket(p)
	require.NoError(t, err)

	decoded, consumed, err := ParsePacket(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, p, decoded)
}

func TestDisconnectDecodeReasonOnly(t *testing.T) {
	decoded, _, err := ParsePacket([]byte{0xE0, 0x01, 0x8D})
	require.NoError(t, err)

	p, ok := decoded.(*DisconnectPacket)
	require.True(t, ok)
	assert.Equal(t, ReasonKeepAliveTimeout, p.ReasonCode)
}
