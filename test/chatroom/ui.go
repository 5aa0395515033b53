package chatroom

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	cmdQuit      = "/quit"
	cmdPeers     = "/peers"
	cmdNeighbors = "/n "
)

// ChatUI is a line based interface for a ChatRoom. Every input line is
// published to the room, except for the commands:
//
//	/quit       leave the room
//	/peers      list the direct neighbors
//	/n <text>   send <text> to the direct neighbors only
type ChatUI struct {
	cr  *ChatRoom
	in  io.Reader
	out io.Writer
}

// NewChatUI returns a new ChatUI reading input lines from in and writing
// the conversation to out. It won't actually do anything until you call Run().
func NewChatUI(cr *ChatRoom, in io.Reader, out io.Writer) *ChatUI {
	return &ChatUI{cr: cr, in: in, out: out}
}

// Run prints incoming messages and handles input until the input ends, the
// user quits, the room is left or ctx is cancelled.
func (ui *ChatUI) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		scanner := bufio.NewScanner(ui.in)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	fmt.Fprintf(ui.out, "Joined room %s as %s\n", ui.cr.roomName, ui.cr.nick)
	for {
		select {
		case line, ok := <-inputCh:
			if !ok {
				return nil
			}
			quit, err := ui.handleInput(ctx, strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintf(ui.out, "! %s\n", err)
			}
			if quit {
				return nil
			}
		case m, ok := <-ui.cr.Messages:
			if !ok {
				return nil
			}
			ui.displayChatMessage(m)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (ui *ChatUI) handleInput(ctx context.Context, line string) (bool, error) {
	switch {
	case line == "":
		return false, nil
	case line == cmdQuit:
		return true, nil
	case line == cmdPeers:
		peers := ui.cr.ListPeers()
		fmt.Fprintf(ui.out, "* %d neighbors\n", len(peers))
		for _, p := range peers {
			fmt.Fprintf(ui.out, "*   %s\n", shortID(p))
		}
		return false, nil
	case strings.HasPrefix(line, cmdNeighbors):
		text := strings.TrimSpace(strings.TrimPrefix(line, cmdNeighbors))
		if err := ui.cr.PublishNeighbors(ctx, text); err != nil {
			return false, err
		}
		fmt.Fprintf(ui.out, "<%s> (neighbors) %s\n", ui.cr.nick, text)
		return false, nil
	default:
		if err := ui.cr.Publish(ctx, line); err != nil {
			return false, err
		}
		fmt.Fprintf(ui.out, "<%s> %s\n", ui.cr.nick, line)
		return false, nil
	}
}

func (ui *ChatUI) displayChatMessage(cm *ChatMessage) {
	if cm.System {
		fmt.Fprintf(ui.out, "* %s\n", cm.Message)
		return
	}
	fmt.Fprintf(ui.out, "<%s@%s> %s\n", cm.SenderNick, shortID(cm.SenderID), cm.Message)
}

// shortID returns the last 8 chars of a base58-encoded peer id.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
