// go-gossip runs a node of a topic based gossip swarm.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
