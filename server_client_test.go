package mqlite

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerClientCloseIdempotent(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := newServerClient(server)
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())

	// Repeated closes are no-ops across every exit path.
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestServerClientWriteAfterClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := newServerClient(server)
	require.NoError(t, c.Close())

	_, err := c.writePacket(&PingrespPacket{}, 0, 0)
	assert.Error(t, err)
}

func TestServerClientAllocPacketID(t *testing.T) {
	c := testClient()

	first := c.allocPacketID()
	second := c.allocPacketID()

	assert.Equal(t, uint16(1), first)
	assert.Equal(t, uint16(2), second)
	assert.NotZero(t, first)

	assert.True(t, c.ackPacketID(first))
	assert.False(t, c.ackPacketID(first))
	assert.True(t, c.ackPacketID(second))
}

func TestServerClientAllocPacketIDSkipsZero(t *testing.T) {
	c := testClient()
	c.nextPacketID = 65535

	id := c.allocPacketID()
	assert.Equal(t, uint16(1), id)
}

func TestServerClientInflightBounded(t *testing.T) {
	c := testClient()

	for i := 0; i < maxInflight+10; i++ {
		c.allocPacketID()
	}

	assert.Len(t, c.inflight, maxInflight)
	assert.Len(t, c.inflightFIFO, maxInflight)

	// The oldest identifiers were evicted to make room.
	assert.False(t, c.ackPacketID(1))
}
