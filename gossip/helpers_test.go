package gossip

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dominant-strategies/go-gossip/p2p"
	mock_p2p "github.com/dominant-strategies/go-gossip/p2p/mocks"
)

var testTopic = func() []byte {
	b := make([]byte, p2p.TopicIDLength)
	for i := range b {
		b[i] = 1
	}
	return b
}()

// recorder is a Callback that keeps every message and tracks how many
// invocations overlap.
type recorder struct {
	mu   sync.Mutex
	msgs []Message

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	// optional hook run inside OnMessage
	hook func(Message) error

	delivered chan Message
}

func newRecorder() *recorder {
	return &recorder{delivered: make(chan Message, 1024)}
}

func (r *recorder) OnMessage(ctx context.Context, msg Message) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		max := r.maxInFlight.Load()
		if n <= max || r.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()

	var err error
	if r.hook != nil {
		err = r.hook(msg)
	}
	r.delivered <- msg
	return err
}

func (r *recorder) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *recorder) next(t *testing.T) Message {
	t.Helper()
	select {
	case msg := <-r.delivered:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

type subscribeFixture struct {
	client *Client
	engine *mock_p2p.MockGossipEngine
	sink   *mock_p2p.MockUpdateSink
	stream chan p2p.SubscribeResponse
}

// setup returns a client whose engine hands out a mocked sink and a
// buffered inbound stream the test controls.
func setup(t *testing.T, buffer int) *subscribeFixture {
	ctrl := gomock.NewController(t)
	f := &subscribeFixture{
		client: NewClient(context.Background(), nil),
		engine: mock_p2p.NewMockGossipEngine(ctrl),
		sink:   mock_p2p.NewMockUpdateSink(ctrl),
		stream: make(chan p2p.SubscribeResponse, buffer),
	}
	f.client.engine = f.engine
	return f
}

func (f *subscribeFixture) subscribe(t *testing.T, cb Callback) *Sender {
	t.Helper()
	f.engine.EXPECT().
		Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(f.sink, (<-chan p2p.SubscribeResponse)(f.stream), nil).
		Times(1)
	sender, err := f.client.Subscribe(context.Background(), testTopic, nil, cb)
	require.NoError(t, err)
	return sender
}

func waitDone(t *testing.T, s *Sender) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop")
	}
}

func isDone(s *Sender) bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}
