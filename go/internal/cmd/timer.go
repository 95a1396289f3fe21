package main

import (
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mcdev12/racedash/go/internal/rpc"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the race timer",
}

var timerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the timer",
	Args:  cobra.NoArgs,
	RunE:  runTimerStart,
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Pause the timer",
	Args:  cobra.NoArgs,
	RunE:  runTimerStop,
}

var timerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the timer and set it back to 00:00:00",
	Args:  cobra.NoArgs,
	RunE:  runTimerReset,
}

func init() {
	timerResetCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	timerCmd.AddCommand(timerStartCmd, timerStopCmd, timerResetCmd)
	rootCmd.AddCommand(timerCmd)
}

func runTimerStart(cmd *cobra.Command, args []string) error {
	resp, err := newRaceClient().StartTimer(commandContext(cmd), connect.NewRequest(&rpc.StartTimerRequest{}))
	if err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}
	printf(cmd, "Timer %s\n", describeTimer(resp.Msg.Timer))
	return nil
}

func runTimerStop(cmd *cobra.Command, args []string) error {
	resp, err := newRaceClient().StopTimer(commandContext(cmd), connect.NewRequest(&rpc.StopTimerRequest{}))
	if err != nil {
		return fmt.Errorf("failed to stop timer: %w", err)
	}
	printf(cmd, "Timer %s\n", describeTimer(resp.Msg.Timer))
	return nil
}

func runTimerReset(cmd *cobra.Command, args []string) error {
	if !confirm(cmd, "Reset the timer to 00:00:00?") {
		printf(cmd, "Reset cancelled.\n")
		return nil
	}

	resp, err := newRaceClient().ResetTimer(commandContext(cmd), connect.NewRequest(&rpc.ResetTimerRequest{Confirmed: true}))
	if err != nil {
		return fmt.Errorf("failed to reset timer: %w", err)
	}
	printf(cmd, "Timer %s\n", describeTimer(resp.Msg.Timer))
	return nil
}
