package common

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/log"
)

const (
	// timeout in seconds before a read/write operation on the stream is considered failed
	C_STREAM_TIMEOUT = 10 * time.Second

	// largest message body accepted from a peer (1MB)
	C_MAX_MESSAGE_SIZE = 1024 * 1024

	// size of the big endian length prefix in front of every message
	c_lengthPrefixSize = 4
)

var ErrMessageTooLarge = errors.New("message exceeds maximum size")

// ReadMessageFromStream reads one length prefixed message from the stream. A
// zero timeout leaves the read deadline untouched, which is what long lived
// inbound streams want. Transports without deadline support are read without one.
func ReadMessageFromStream(stream network.Stream, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := stream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			log.Global.WithField("err", err).Debug("Reading without a deadline")
		}
	}
	return ReadFrame(stream)
}

// WriteMessageToStream writes msg with its length prefix in a single write.
// A stream that rejects the write deadline is still written to.
func WriteMessageToStream(stream network.Stream, msg []byte) error {
	if err := stream.SetWriteDeadline(time.Now().Add(C_STREAM_TIMEOUT)); err != nil {
		log.Global.WithField("err", err).Debug("Writing without a deadline")
	}
	if _, err := WriteFrame(stream, msg); err != nil {
		return err
	}
	countMessage("sent")
	return nil
}

// ReadFrame reads a single length prefixed frame. A clean end of stream before
// the prefix is reported as io.EOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [c_lengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.Wrap(err, "failed to read message length")
		}
		return nil, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > C_MAX_MESSAGE_SIZE {
		return nil, errors.Wrapf(ErrMessageTooLarge, "%d bytes", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "failed to read message body")
	}
	countMessage("received")
	return data, nil
}

// WriteFrame writes msg behind its length prefix. Both go out in one Write so
// concurrent writers holding their own lock never interleave a frame.
func WriteFrame(w io.Writer, msg []byte) (int, error) {
	if len(msg) > C_MAX_MESSAGE_SIZE {
		return 0, errors.Wrapf(ErrMessageTooLarge, "%d bytes", len(msg))
	}
	buf := make([]byte, c_lengthPrefixSize+len(msg))
	binary.BigEndian.PutUint32(buf, uint32(len(msg)))
	copy(buf[c_lengthPrefixSize:], msg)

	n, err := w.Write(buf)
	if err != nil {
		return n, errors.Wrap(err, "failed to write message to stream")
	}
	return n, nil
}
