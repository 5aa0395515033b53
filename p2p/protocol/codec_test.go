package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dominant-strategies/go-gossip/p2p"
	"github.com/dominant-strategies/go-gossip/p2p/protocol"
)

func TestNeighborFrameRoundTrip(t *testing.T) {
	frame := protocol.NeighborFrame{
		Topic:   p2p.TopicIDFromString("chat"),
		Payload: []byte("hello neighbors"),
	}

	decoded, err := protocol.DecodeNeighborFrame(protocol.EncodeNeighborFrame(frame))
	require.NoError(t, err)
	assert.Equal(t, frame, decoded)
}

func TestDecodeNeighborFrameSkipsUnknownFields(t *testing.T) {
	topic := p2p.TopicIDFromString("chat")
	b := protowire.AppendTag(nil, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = append(b, protocol.EncodeNeighborFrame(protocol.NeighborFrame{Topic: topic, Payload: []byte("x")})...)

	decoded, err := protocol.DecodeNeighborFrame(b)
	require.NoError(t, err)
	assert.Equal(t, topic, decoded.Topic)
	assert.Equal(t, []byte("x"), decoded.Payload)
}

func TestDecodeNeighborFrameRejectsMalformed(t *testing.T) {
	shortTopic := protowire.AppendTag(nil, 1, protowire.BytesType)
	shortTopic = protowire.AppendBytes(shortTopic, []byte{1, 2, 3})

	noTopic := protowire.AppendTag(nil, 2, protowire.BytesType)
	noTopic = protowire.AppendBytes(noTopic, []byte("payload"))

	truncated := protocol.EncodeNeighborFrame(protocol.NeighborFrame{
		Topic:   p2p.TopicIDFromString("chat"),
		Payload: []byte("payload"),
	})
	truncated = truncated[:len(truncated)-3]

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage tag", []byte{0xff}},
		{"topic of wrong length", shortTopic},
		{"missing topic", noTopic},
		{"truncated payload", truncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.DecodeNeighborFrame(tt.data)
			assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
		})
	}
}
