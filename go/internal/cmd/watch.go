package main

import (
	"github.com/spf13/cobra"

	"github.com/mcdev12/racedash/go/internal/gateway"
	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the live dashboard in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	server, token := remoteTarget()

	client, err := gateway.Dial(ctx, server, token)
	if err != nil {
		return err
	}
	defer client.Close()

	mode := roster.ModeViewer
	if token != "" {
		mode = roster.ModeAdmin
	}

	return watch.Run(ctx, client, watch.Options{
		Server:       server,
		Mode:         mode,
		TickInterval: cfg.TickInterval,
	})
}
