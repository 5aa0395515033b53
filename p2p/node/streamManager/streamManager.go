package streamManager

import (
	"context"
	"sync"
	"time"

	expireLru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/libp2p/go-libp2p/core/host"
	libp2pmetrics "github.com/libp2p/go-libp2p/core/metrics"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/common"
	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
)

const (
	// timeout in seconds before a read/write operation on the stream is considered failed
	c_stream_timeout = common.C_STREAM_TIMEOUT

	// The amount of redundancy for open streams
	c_streamCacheSize = 30

	// Streams are recycled after this long so half-dead ones do not linger
	c_streamTTL = 10 * time.Minute
)

var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrStreamMismatch = errors.New("stream mismatch")
	ErrStreamBusy     = errors.New("timed out waiting for stream")
)

type StreamManager interface {
	// Get the host for the stream manager
	GetHost() host.Host

	// GetStream returns a valid stream, either creating a new one or returning an existing one
	GetStream(ctx context.Context, peerID p2p.PeerID) (network.Stream, error)

	// CloseStream goes through all the steps to properly close and remove a stream's resources
	CloseStream(p2p.PeerID) error

	// WriteMessageToStream writes the given message into the given stream
	WriteMessageToStream(peerID p2p.PeerID, stream network.Stream, msg []byte) error

	// Stop closes every cached stream
	Stop()
}

type basicStreamManager struct {
	ctx         context.Context
	cancel      context.CancelFunc
	streamCache *expireLru.LRU[p2p.PeerID, streamWrapper]
	protocolID  protocol.ID
	reporter    libp2pmetrics.Reporter

	host host.Host
	mu   sync.Mutex
}

type streamWrapper struct {
	stream network.Stream
	// single slot, writes on one stream never interleave
	semaphore chan struct{}
}

// NewStreamManager caches outbound streams speaking protocolID. reporter may
// be nil.
func NewStreamManager(host host.Host, protocolID protocol.ID, reporter libp2pmetrics.Reporter) *basicStreamManager {
	lruCache := expireLru.NewLRU[p2p.PeerID, streamWrapper](
		c_streamCacheSize,
		severStream,
		c_streamTTL,
	)

	ctx, cancel := context.WithCancel(context.Background())

	return &basicStreamManager{
		ctx:         ctx,
		cancel:      cancel,
		streamCache: lruCache,
		protocolID:  protocolID,
		reporter:    reporter,
		host:        host,
	}
}

// Expects a key as peerID and value of streamWrapper
func severStream(key p2p.PeerID, wrappedStream streamWrapper) {
	if err := wrappedStream.stream.Close(); err != nil {
		log.Global.WithFields(log.Fields{
			"peerID": key,
			"err":    err,
		}).Debug("Failed to close stream")
	}
	addStreams(-1)
}

func (sm *basicStreamManager) Stop() {
	sm.cancel()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.streamCache.Purge()
}

func (sm *basicStreamManager) GetHost() host.Host {
	return sm.host
}

// OpenStream opens a stream to the peer unless one is already cached
func (sm *basicStreamManager) OpenStream(ctx context.Context, peerID p2p.PeerID) error {
	_, err := sm.GetStream(ctx, peerID)
	return err
}

func (sm *basicStreamManager) GetStream(ctx context.Context, peerID p2p.PeerID) (network.Stream, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if wrappedStream, ok := sm.streamCache.Get(peerID); ok {
		log.Global.WithField("peerID", peerID).Trace("Requested stream was found in cache")
		return wrappedStream.stream, nil
	}
	if sm.ctx.Err() != nil {
		return nil, errors.Wrap(sm.ctx.Err(), "stream manager stopped")
	}

	streamCtx, streamCancel := context.WithTimeout(ctx, c_stream_timeout)
	defer streamCancel()

	// Attempt to create the new stream to the peer
	stream, err := sm.host.NewStream(streamCtx, peerID, sm.protocolID)
	if err != nil {
		if streamCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Errorf("stream creation timeout with peer %s", peerID)
		}
		return nil, errors.Wrapf(err, "error opening new stream with peer %s", peerID)
	}

	sm.streamCache.Add(peerID, streamWrapper{
		stream:    stream,
		semaphore: make(chan struct{}, 1),
	})
	addStreams(1)
	log.Global.WithField("peerID", peerID).Debug("Opened new stream")
	return stream, nil
}

func (sm *basicStreamManager) CloseStream(peerID p2p.PeerID) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	// the eviction callback severs the stream
	if sm.streamCache.Remove(peerID) {
		log.Global.WithField("peerID", peerID).Debug("Pruned stream with peer")
		return nil
	}
	return ErrStreamNotFound
}

// WriteMessageToStream writes one length prefixed message to a stream handed
// out by GetStream.
func (sm *basicStreamManager) WriteMessageToStream(peerID p2p.PeerID, stream network.Stream, msg []byte) error {
	wrappedStream, found := sm.streamCache.Get(peerID)
	if !found {
		return ErrStreamNotFound
	}
	if stream != wrappedStream.stream {
		// Indicate an unexpected case where the stream we stored and the stream we are requested to write to are not the same.
		return ErrStreamMismatch
	}

	timer := time.NewTimer(c_stream_timeout)
	defer timer.Stop()
	select {
	case wrappedStream.semaphore <- struct{}{}:
	case <-timer.C:
		return ErrStreamBusy
	}
	defer func() {
		<-wrappedStream.semaphore
	}()

	if err := common.WriteMessageToStream(stream, msg); err != nil {
		return err
	}
	if sm.reporter != nil {
		sm.reporter.LogSentMessageStream(int64(len(msg)), sm.protocolID, peerID)
	}
	return nil
}
