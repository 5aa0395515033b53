package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-gossip/gossip"
	"github.com/dominant-strategies/go-gossip/log"
)

func TestMain(m *testing.M) {
	log.ConfigureLogger(log.WithNullLogger())
	os.Exit(m.Run())
}

func TestRenderConfig(t *testing.T) {
	var buf bytes.Buffer
	renderConfig(&buf, map[string]interface{}{
		"port":      "4001",
		"bootpeers": []string{"a", "b"},
		"metrics": map[string]interface{}{
			"port": 2112,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "PARAMETER")
	assert.Contains(t, out, "metrics.port")
	assert.Contains(t, out, "2112")
	assert.Contains(t, out, "[a b]")
	assert.Less(t, strings.Index(out, "bootpeers"), strings.Index(out, "metrics.port"))
	assert.Less(t, strings.Index(out, "metrics.port"), strings.Index(out, "| port"))
}

func TestLogEventsAcceptsEveryVariant(t *testing.T) {
	ctx := context.Background()
	for _, msg := range []gossip.Message{
		gossip.NeighborUp{Peer: "a"},
		gossip.NeighborDown{Peer: "a"},
		gossip.Received{Content: []byte("hi"), DeliveredFrom: "a"},
		gossip.Joined{Peers: []string{"a"}},
		gossip.Lagged{},
		gossip.Error{Description: "boom"},
	} {
		require.NoError(t, logEvents(ctx, msg))
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["start"])
	assert.True(t, names["chat"])
	assert.True(t, names["config"])
}
