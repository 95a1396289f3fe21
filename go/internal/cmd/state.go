package main

import (
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/rpc"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the current timer and roster",
	Args:  cobra.NoArgs,
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	client := newRaceClient()

	timerResp, err := client.GetTimer(ctx, connect.NewRequest(&rpc.GetTimerRequest{}))
	if err != nil {
		return fmt.Errorf("failed to get timer: %w", err)
	}
	driversResp, err := client.ListDrivers(ctx, connect.NewRequest(&rpc.ListDriversRequest{}))
	if err != nil {
		return fmt.Errorf("failed to list drivers: %w", err)
	}

	// ids are shown when an admin token is configured so rm can use them
	mode := roster.ModeViewer
	if _, token := remoteTarget(); token != "" {
		mode = roster.ModeAdmin
	}

	drivers := driversFromRPC(driversResp.Msg.Drivers)
	printf(cmd, "Timer: %s\n", describeTimer(timerResp.Msg.Timer))
	printf(cmd, "Drivers (%d):\n", len(drivers))
	for _, line := range roster.NewProjector(mode).RenderText(drivers) {
		printf(cmd, "  %s\n", line)
	}
	return nil
}
