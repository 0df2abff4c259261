package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/slack"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack events server",
	Long: `Run the Slack Events API server.

Point the Slack app's event subscription at http(s)://<host>/slack/events
and subscribe to message.channels, message.groups and message.im.
The server also exposes /healthz and /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireSlack(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	defer a.close()

	client, err := slack.NewClient(cfg.Slack.BotToken)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	authCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	botUserID, err := client.AuthTest(authCtx)
	cancel()
	if err != nil {
		exitWithError(ExitAPIError, "Slack auth.test failed: %v", err)
	}
	logger.Info("authenticated with Slack", zap.String("bot_user_id", botUserID))

	srv := slack.NewServer(cfg.Slack.SigningSecret, client, a.bot,
		slack.WithLogger(logger.Named("slack")),
		slack.WithGatherer(a.registry),
		slack.WithBotUserID(botUserID))
	return srv.ListenAndServe(ctx, addr)
}
