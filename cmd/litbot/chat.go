package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matsen/litbot/internal/console"
)

var (
	chatConversation string
	chatPlain        bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Start an interactive conversation on stdin/stdout.

The console uses the same storage as the Slack server, under the
conversation ID "console" unless --conversation is given.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatConversation, "conversation", console.ConversationID, "Conversation ID to use")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Disable colors")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	defer a.close()

	opts := []console.Option{console.WithConversation(chatConversation)}
	if chatPlain {
		opts = append(opts, console.WithPlain())
	}
	return console.New(os.Stdin, os.Stdout, a.bot, opts...).Run(ctx)
}
