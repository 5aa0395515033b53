package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/test/chatroom"
)

var nicknameFlag = utils.Flag{
	Name:         "nickname",
	Abbreviation: "n",
	Value:        "anonymous",
	Usage:        "nickname to use in chat",
}

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Joins a chat room to chat with other peers",
	Long: `Joins a chat room to chat with other peers.
The chat room is identified by the topic name.
Every line typed is sent to the room. /n <text> sends to direct neighbors only,
/peers lists them. To quit the chat, type /quit or press Ctrl+C.`,
	RunE:                       runChat,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `go-gossip chat --topic=lobby --nickname=messi`,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	for _, flag := range utils.NodeFlags {
		utils.CreateAndBindFlag(flag, chatCmd)
	}
	for _, flag := range utils.TopicFlags {
		utils.CreateAndBindFlag(flag, chatCmd)
	}
	utils.CreateAndBindFlag(nicknameFlag, chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	log.Global.Infof("Starting chat app")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	room := viper.GetString(utils.TopicFlag.Name)
	nickname := viper.GetString(nicknameFlag.Name)
	log.Global.Infof("Joining chat room %s with nickname %s", room, nickname)

	n, err := startNode(ctx)
	if err != nil {
		return err
	}
	defer n.Stop()

	cr, err := chatroom.JoinChatRoom(ctx, n.Client(), n.ID(), nickname, room, viper.GetStringSlice(utils.TopicPeersFlag.Name))
	if err != nil {
		return err
	}
	defer cr.Leave(context.Background())

	// the conversation owns the terminal from here on, logs go to file only
	log.ConfigureLogger(log.WithFileOutput(""))
	if err := chatroom.NewChatUI(cr, os.Stdin, os.Stdout).Run(ctx); err != nil && err != context.Canceled {
		log.Global.Errorf("error running chat UI: %s", err)
		return err
	}
	return nil
}
