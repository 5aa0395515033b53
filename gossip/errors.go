package gossip

import "errors"

var (
	// ErrInvalidTopic is returned by Subscribe when the topic is not exactly 32 bytes
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidPeerAddress is returned by Subscribe when a bootstrap entry is not a peer id
	ErrInvalidPeerAddress = errors.New("invalid peer address")

	// ErrAlreadyClosed is returned by Cancel once the subscription has been cancelled
	ErrAlreadyClosed = errors.New("already closed")

	// ErrInvalidVariantAccess is returned by the As* accessors on a mismatched message
	ErrInvalidVariantAccess = errors.New("invalid message variant access")
)
