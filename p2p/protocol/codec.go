package protocol

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dominant-strategies/go-gossip/p2p"
)

const (
	fieldTopic   protowire.Number = 1
	fieldPayload protowire.Number = 2
)

var ErrMalformedFrame = errors.New("malformed neighbor frame")

// NeighborFrame is a payload addressed to the direct neighbors of a topic.
// Receivers deliver it locally and never forward it.
type NeighborFrame struct {
	Topic   p2p.TopicID
	Payload []byte
}

// EncodeNeighborFrame serializes the frame as a protobuf message with the
// topic in field 1 and the payload in field 2.
func EncodeNeighborFrame(frame NeighborFrame) []byte {
	b := make([]byte, 0, p2p.TopicIDLength+len(frame.Payload)+8)
	b = protowire.AppendTag(b, fieldTopic, protowire.BytesType)
	b = protowire.AppendBytes(b, frame.Topic.Bytes())
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, frame.Payload)
	return b
}

// DecodeNeighborFrame parses a frame written by EncodeNeighborFrame. Unknown
// fields are skipped; a missing or wrongly sized topic is rejected.
func DecodeNeighborFrame(b []byte) (NeighborFrame, error) {
	var (
		frame    NeighborFrame
		hasTopic bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return NeighborFrame{}, errors.Wrap(ErrMalformedFrame, protowire.ParseError(n).Error())
		}
		b = b[n:]

		switch {
		case num == fieldTopic && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return NeighborFrame{}, errors.Wrap(ErrMalformedFrame, protowire.ParseError(n).Error())
			}
			topic, err := p2p.NewTopicID(v)
			if err != nil {
				return NeighborFrame{}, errors.Wrap(ErrMalformedFrame, err.Error())
			}
			frame.Topic = topic
			hasTopic = true
			b = b[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return NeighborFrame{}, errors.Wrap(ErrMalformedFrame, protowire.ParseError(n).Error())
			}
			frame.Payload = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return NeighborFrame{}, errors.Wrap(ErrMalformedFrame, protowire.ParseError(n).Error())
			}
			b = b[n:]
		}
	}
	if !hasTopic {
		return NeighborFrame{}, errors.Wrap(ErrMalformedFrame, "missing topic")
	}
	return frame, nil
}
