package gossip

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dominant-strategies/go-gossip/p2p"
)

func TestSenderBroadcastKinds(t *testing.T) {
	f := setup(t, 1)
	sender := f.subscribe(t, newRecorder())

	gomock.InOrder(
		f.sink.EXPECT().Send(gomock.Any(), p2p.SubscribeUpdate{Kind: p2p.UpdateBroadcast, Payload: []byte("all")}).Return(nil),
		f.sink.EXPECT().Send(gomock.Any(), p2p.SubscribeUpdate{Kind: p2p.UpdateBroadcastNeighbors, Payload: []byte("near")}).Return(nil),
	)

	require.NoError(t, sender.Broadcast(context.Background(), []byte("all")))
	require.NoError(t, sender.BroadcastNeighbors(context.Background(), []byte("near")))
}

func TestSenderSendErrorIsReturned(t *testing.T) {
	f := setup(t, 1)
	sender := f.subscribe(t, newRecorder())

	sendErr := errors.New("transport failure")
	f.sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(sendErr).Times(2)

	err := sender.Broadcast(context.Background(), []byte("x"))
	require.ErrorIs(t, err, sendErr)
	err = sender.BroadcastNeighbors(context.Background(), []byte("x"))
	require.ErrorIs(t, err, sendErr)
}

func TestSenderSerializesWrites(t *testing.T) {
	f := setup(t, 1)
	sender := f.subscribe(t, newRecorder())

	var inFlight, maxInFlight atomic.Int32
	f.sink.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, p2p.SubscribeUpdate) error {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return nil
	}).Times(40)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, sender.Broadcast(context.Background(), []byte("a")))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, sender.BroadcastNeighbors(context.Background(), []byte("b")))
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInFlight.Load())
}

func TestSenderAcquireHonorsContext(t *testing.T) {
	f := setup(t, 1)
	sender := f.subscribe(t, newRecorder())

	entered := make(chan struct{})
	release := make(chan struct{})
	f.sink.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, p2p.SubscribeUpdate) error {
		close(entered)
		<-release
		return nil
	}).Times(1)

	go sender.Broadcast(context.Background(), []byte("slow"))
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := sender.Broadcast(ctx, []byte("blocked"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestSenderCancel(t *testing.T) {
	t.Run("second cancel returns ErrAlreadyClosed", func(t *testing.T) {
		f := setup(t, 1)
		sender := f.subscribe(t, newRecorder())

		f.sink.EXPECT().Close().Return(nil).Times(1)
		require.NoError(t, sender.Cancel(context.Background()))
		require.ErrorIs(t, sender.Cancel(context.Background()), ErrAlreadyClosed)
		waitDone(t, sender)
	})

	t.Run("broadcast after cancel fails", func(t *testing.T) {
		f := setup(t, 1)
		sender := f.subscribe(t, newRecorder())

		// the closed sink is never written to
		f.sink.EXPECT().Close().Return(nil)
		f.sink.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)
		require.NoError(t, sender.Cancel(context.Background()))

		require.ErrorIs(t, sender.Broadcast(context.Background(), []byte("late")), ErrAlreadyClosed)
		require.ErrorIs(t, sender.BroadcastNeighbors(context.Background(), []byte("late")), ErrAlreadyClosed)
	})

	t.Run("failed close keeps the subscription active", func(t *testing.T) {
		f := setup(t, 1)
		sender := f.subscribe(t, newRecorder())

		closeErr := errors.New("flush failed")
		gomock.InOrder(
			f.sink.EXPECT().Close().Return(closeErr),
			f.sink.EXPECT().Close().Return(nil),
		)
		require.ErrorIs(t, sender.Cancel(context.Background()), closeErr)
		require.False(t, isDone(sender))

		require.NoError(t, sender.Cancel(context.Background()))
		waitDone(t, sender)
		require.ErrorIs(t, sender.Cancel(context.Background()), ErrAlreadyClosed)
	})

	t.Run("concurrent cancels close the sink once", func(t *testing.T) {
		f := setup(t, 1)
		sender := f.subscribe(t, newRecorder())
		f.sink.EXPECT().Close().Return(nil).Times(1)

		var wg sync.WaitGroup
		var ok, closed atomic.Int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				switch err := sender.Cancel(context.Background()); {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, ErrAlreadyClosed):
					closed.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), ok.Load())
		require.Equal(t, int32(7), closed.Load())
		waitDone(t, sender)
	})
}
