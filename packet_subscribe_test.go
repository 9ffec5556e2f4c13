package mqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		packet *SubscribePacket
	}{
		{
			name: "single filter",
			packet: &SubscribePacket{
				PacketID:      1,
				Subscriptions: []Subscription{{TopicFilter: "a/b"}},
			},
		},
		{
			name: "multiple filters",
			packet: &SubscribePacket{
				PacketID: 9,
				Subscriptions: []Subscription{
					{TopicFilter: "sensors/temp", QoS: 1},
					{TopicFilter: "sensors/humidity"},
					{TopicFilter: "alerts", QoS: 2},
				},
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

func TestSubscribeDecodeErrors(t *testing.T) {
	t.Run("zero packet id", func(t *testing.T) {
		data := []byte{0x82, 0x09, 0x00, 0x00, 0x00, 0x00, 0x03, 'a', '/', 'b', 0x00}
		_, _, err := ParsePacket(data)
		assert.ErrorIs(t, err, ErrPacketIDZero)
	})

	t.Run("no filters", func(t *testing.T) {
		data := []byte{0x82, 0x03, 0x00, 0x01, 0x00}
		_, _, err := ParsePacket(data)
		assert.ErrorIs(t, err, ErrNoSubscriptions)
	})

	t.Run("reserved option bits", func(t *testing.T) {
		data := []byte{0x82, 0x09, 0x00, 0x01, 0x00, 0x00, 0x03, 'a', '/', 'b', 0x40}
		_, _, err := ParsePacket(data)
		assert.ErrorIs(t, err, ErrInvalidSubscriptionOption)
	})
}

func TestSubscribeValidate(t *testing.T) {
	assert.ErrorIs(t, (&SubscribePacket{Subscriptions: []Subscription{{TopicFilter: "t"}}}).Validate(), ErrPacketIDZero)
	assert.ErrorIs(t, (&SubscribePacket{PacketID: 1}).Validate(), ErrNoSubscriptions)
	assert.ErrorIs(t, (&SubscribePacket{PacketID: 1, Subscriptions: []Subscription{{TopicFilter: ""}}}).Validate(), ErrEmptyTopic)
}
