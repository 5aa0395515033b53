package chatroom

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/gossip"
	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
)

// ChatRoomBufSize is the number of incoming messages to buffer for each room.
const ChatRoomBufSize = 128

// ChatRoom represents a subscription to a single gossip topic. Messages
// can be published to the topic with ChatRoom.Publish, and received
// messages are pushed to the Messages channel.
type ChatRoom struct {
	// Messages is a channel of messages received from other peers in the chat room
	Messages chan *ChatMessage

	sender *gossip.Sender

	roomName string
	self     peer.ID
	nick     string

	mu        sync.Mutex
	neighbors map[string]struct{}
	closed    bool
}

// ChatMessage gets converted to/from JSON and sent in the body of gossip messages.
type ChatMessage struct {
	Message    string
	SenderID   string
	SenderNick string

	// set on notices generated locally, never sent
	System bool `json:"-"`
}

// JoinChatRoom subscribes to the topic of the room name, returning a ChatRoom
// on success. bootstrap holds peer ids already known to be in the room.
func JoinChatRoom(ctx context.Context, client *gossip.Client, selfID peer.ID, nickname string, roomName string, bootstrap []string) (*ChatRoom, error) {
	cr := newChatRoom(selfID, nickname, roomName)
	topic := TopicID(roomName)
	sender, err := client.Subscribe(ctx, topic[:], bootstrap, cr)
	if err != nil {
		return nil, err
	}
	cr.sender = sender
	log.Global.WithFields(log.Fields{
		"room":  roomName,
		"topic": topic.String(),
	}).Debug("Joined chat room")
	return cr, nil
}

func newChatRoom(selfID peer.ID, nickname string, roomName string) *ChatRoom {
	return &ChatRoom{
		Messages:  make(chan *ChatMessage, ChatRoomBufSize),
		roomName:  roomName,
		self:      selfID,
		nick:      nickname,
		neighbors: make(map[string]struct{}),
	}
}

// TopicID derives the gossip topic of a room
func TopicID(roomName string) p2p.TopicID {
	return p2p.TopicIDFromString(topicName(roomName))
}

// Publish sends a message to everyone in the room.
func (cr *ChatRoom) Publish(ctx context.Context, message string) error {
	msgBytes, err := cr.encode(message)
	if err != nil {
		return err
	}
	return cr.sender.Broadcast(ctx, msgBytes)
}

// PublishNeighbors sends a message to the direct neighbors only.
func (cr *ChatRoom) PublishNeighbors(ctx context.Context, message string) error {
	msgBytes, err := cr.encode(message)
	if err != nil {
		return err
	}
	return cr.sender.BroadcastNeighbors(ctx, msgBytes)
}

// ListPeers returns the current direct neighbors, sorted
func (cr *ChatRoom) ListPeers() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	peers := make([]string, 0, len(cr.neighbors))
	for p := range cr.neighbors {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	return peers
}

// Leave cancels the subscription and closes Messages once no further
// message can arrive.
func (cr *ChatRoom) Leave(ctx context.Context) error {
	if err := cr.sender.Cancel(ctx); err != nil {
		return err
	}
	select {
	case <-cr.sender.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if !cr.closed {
		cr.closed = true
		close(cr.Messages)
	}
	return nil
}

// OnMessage tracks the room membership and forwards chat messages
func (cr *ChatRoom) OnMessage(ctx context.Context, msg gossip.Message) error {
	switch m := msg.(type) {
	case gossip.Joined:
		cr.mu.Lock()
		for _, p := range m.Peers {
			cr.neighbors[p] = struct{}{}
		}
		cr.mu.Unlock()
	case gossip.NeighborUp:
		cr.mu.Lock()
		cr.neighbors[m.Peer] = struct{}{}
		cr.mu.Unlock()
	case gossip.NeighborDown:
		cr.mu.Lock()
		delete(cr.neighbors, m.Peer)
		cr.mu.Unlock()
	case gossip.Received:
		cm := new(ChatMessage)
		if err := json.Unmarshal(m.Content, cm); err != nil {
			return errors.Wrapf(err, "decoding chat message from %s", m.DeliveredFrom)
		}
		// only forward messages delivered by others
		if cm.SenderID == cr.self.String() {
			return nil
		}
		return cr.push(ctx, cm)
	case gossip.Lagged:
		return cr.push(ctx, &ChatMessage{Message: "some messages were missed", System: true})
	case gossip.Error:
		log.Global.WithField("room", cr.roomName).Warnf("Chat room stream error: %s", m.Description)
	}
	return nil
}

func (cr *ChatRoom) push(ctx context.Context, cm *ChatMessage) error {
	select {
	case cr.Messages <- cm:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cr *ChatRoom) encode(message string) ([]byte, error) {
	return json.Marshal(ChatMessage{
		Message:    message,
		SenderID:   cr.self.String(),
		SenderNick: cr.nick,
	})
}

func topicName(roomName string) string {
	return "chat-room:" + roomName
}
