package common

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dominant-strategies/go-gossip/common/mocks"
)

const (
	// message length: 12
	shortMessage = "test message"
	// message length: 260
	longMessage = "the quick brown fox jumps over the lazy dog multiple times to make this message longer and longer and longer and longer and longer and longer and longer and longer and longer and longer and longer and longer and longer until it is more than 256 characters long"
)

func TestWriteMessageToStream(t *testing.T) {
	tests := []struct {
		name      string
		message   []byte
		wantErr   bool
		setupMock func(*mocks.MockStream)
	}{
		{
			name:    "successful write with short message",
			message: []byte(shortMessage),
			setupMock: func(m *mocks.MockStream) {
				m.EXPECT().SetWriteDeadline(gomock.Any()).Return(nil)
				m.EXPECT().Write(gomock.Any()).DoAndReturn(func(b []byte) (int, error) {
					// prefix and body go out in a single write
					assert.Equal(t, []byte{0, 0, 0, 12}, b[:4])
					assert.Equal(t, shortMessage, string(b[4:]))
					return len(b), nil
				})
			},
		},
		{
			name:    "successful write with long message",
			message: []byte(longMessage),
			setupMock: func(m *mocks.MockStream) {
				m.EXPECT().SetWriteDeadline(gomock.Any()).Return(nil)
				m.EXPECT().Write(gomock.Any()).DoAndReturn(func(b []byte) (int, error) {
					assert.Equal(t, []byte{0, 0, 1, 4}, b[:4]) // 260 = 0x0104
					return len(b), nil
				})
			},
		},
		{
			name:    "writes anyway when deadlines are not supported",
			message: []byte(shortMessage),
			setupMock: func(m *mocks.MockStream) {
				m.EXPECT().SetWriteDeadline(gomock.Any()).Return(fmt.Errorf("set pipe: deadline not supported"))
				m.EXPECT().Write(gomock.Any()).DoAndReturn(func(b []byte) (int, error) {
					assert.Equal(t, shortMessage, string(b[4:]))
					return len(b), nil
				})
			},
		},
		{
			name:    "error on write",
			message: []byte(shortMessage),
			wantErr: true,
			setupMock: func(m *mocks.MockStream) {
				m.EXPECT().SetWriteDeadline(gomock.Any()).Return(nil)
				m.EXPECT().Write(gomock.Any()).Return(0, fmt.Errorf("stream reset"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockStream := mocks.NewMockStream(ctrl)
			tt.setupMock(mockStream)

			err := WriteMessageToStream(mockStream, tt.message)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReadMessageFromStream(t *testing.T) {
	var framed bytes.Buffer
	_, err := WriteFrame(&framed, []byte(longMessage))
	require.NoError(t, err)

	t.Run("sets the deadline when a timeout is given", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := mocks.NewMockStream(ctrl)
		reader := bytes.NewReader(framed.Bytes())
		m.EXPECT().SetReadDeadline(gomock.Any()).Return(nil)
		m.EXPECT().Read(gomock.Any()).DoAndReturn(reader.Read).AnyTimes()

		got, err := ReadMessageFromStream(m, C_STREAM_TIMEOUT)
		require.NoError(t, err)
		assert.Equal(t, longMessage, string(got))
	})

	t.Run("leaves the deadline alone without a timeout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := mocks.NewMockStream(ctrl)
		reader := bytes.NewReader(framed.Bytes())
		m.EXPECT().Read(gomock.Any()).DoAndReturn(reader.Read).AnyTimes()

		got, err := ReadMessageFromStream(m, 0)
		require.NoError(t, err)
		assert.Equal(t, longMessage, string(got))
	})

	t.Run("reads anyway when deadlines are not supported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := mocks.NewMockStream(ctrl)
		reader := bytes.NewReader(framed.Bytes())
		m.EXPECT().SetReadDeadline(gomock.Any()).Return(fmt.Errorf("set pipe: deadline not supported"))
		m.EXPECT().Read(gomock.Any()).DoAndReturn(reader.Read).AnyTimes()

		got, err := ReadMessageFromStream(m, C_STREAM_TIMEOUT)
		require.NoError(t, err)
		assert.Equal(t, longMessage, string(got))
	})
}

func TestReadFrame(t *testing.T) {
	var buf bytes.Buffer
	for _, msg := range []string{shortMessage, "", longMessage} {
		_, err := WriteFrame(&buf, []byte(msg))
		require.NoError(t, err)
	}

	for _, want := range []string{shortMessage, "", longMessage} {
		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	_, err := ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameTruncated(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 0}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadFrame(bytes.NewReader([]byte{0, 0, 0, 12, 't', 'e'}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFrameSizeLimit(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}))
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	_, err = WriteFrame(io.Discard, []byte(strings.Repeat("x", C_MAX_MESSAGE_SIZE+1)))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}
