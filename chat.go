package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipechat/internal/client"
	"recipechat/internal/config"
	"recipechat/internal/tui"
)

var (
	chatEndpoint string
	chatLogFile  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat window",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, chatCmd} {
		cmd.Flags().StringVar(&chatEndpoint, "endpoint", "", "chat endpoint URL (default "+config.DefaultEndpoint+")")
		cmd.Flags().StringVar(&chatLogFile, "log-file", "", "write logs to this file; the terminal stays clean")
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	endpoint := cfg.Client.Endpoint
	if chatEndpoint != "" {
		endpoint = chatEndpoint
	}
	logFile := cfg.Client.LogFile
	if chatLogFile != "" {
		logFile = chatLogFile
	}

	// The chat window owns the terminal, so logs only ever go to a file.
	logger := zap.NewNop()
	if logFile != "" {
		if logger, err = newLogger(logFile); err != nil {
			return err
		}
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.Info("chat started", zap.String("endpoint", endpoint))
	cl := client.New(endpoint, cfg.ClientTimeout(), logger)
	return tui.Run(ctx, cl, tui.WithEndpoint(endpoint), tui.WithLogger(logger))
}
