package main

import (
	"fmt"
	"os"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mcdev12/racedash/go/internal/race"
	"github.com/mcdev12/racedash/go/internal/rpc"
)

var driverCmd = &cobra.Command{
	Use:     "driver",
	Aliases: []string{"drivers"},
	Short:   "Manage the driver roster",
}

var driverAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a driver to the roster",
	Example: `  racedash driver add --name "Ayrton Senna" --team McLaren --car "MP4/4"`,
	Args:    cobra.NoArgs,
	RunE:    runDriverAdd,
}

var driverRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete one driver",
	Args:    cobra.ExactArgs(1),
	RunE:    runDriverRemove,
}

var driverClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every driver",
	Args:  cobra.NoArgs,
	RunE:  runDriverClear,
}

var driverExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the roster as JSON",
	Long: `Write the roster as a pretty-printed JSON object keyed by driver id.
Use -o - to write to standard output.`,
	Args: cobra.NoArgs,
	RunE: runDriverExport,
}

func init() {
	driverAddCmd.Flags().String("name", "", "driver name (required)")
	driverAddCmd.Flags().String("team", "", "team name")
	driverAddCmd.Flags().String("car", "", "car")

	driverRemoveCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	driverClearCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	driverExportCmd.Flags().StringP("output", "o", race.ExportFilename, "output file, - for stdout")

	driverCmd.AddCommand(driverAddCmd, driverRemoveCmd, driverClearCmd, driverExportCmd)
	rootCmd.AddCommand(driverCmd)
}

func runDriverAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	team, _ := cmd.Flags().GetString("team")
	car, _ := cmd.Flags().GetString("car")

	resp, err := newRaceClient().AddDriver(commandContext(cmd), connect.NewRequest(&rpc.AddDriverRequest{
		Name: name,
		Team: team,
		Car:  car,
	}))
	if err != nil {
		return fmt.Errorf("failed to add driver: %w", err)
	}

	d := resp.Msg.Driver
	printf(cmd, "Added %s (%s)\n", d.Name, d.Id)
	return nil
}

func runDriverRemove(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !confirm(cmd, fmt.Sprintf("Delete driver %s?", id)) {
		printf(cmd, "Delete cancelled.\n")
		return nil
	}

	_, err := newRaceClient().DeleteDriver(commandContext(cmd), connect.NewRequest(&rpc.DeleteDriverRequest{
		Id:        id,
		Confirmed: true,
	}))
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	printf(cmd, "Deleted %s\n", id)
	return nil
}

func runDriverClear(cmd *cobra.Command, args []string) error {
	if !confirm(cmd, "Delete ALL drivers?") {
		printf(cmd, "Clear cancelled.\n")
		return nil
	}

	_, err := newRaceClient().ClearDrivers(commandContext(cmd), connect.NewRequest(&rpc.ClearDriversRequest{Confirmed: true}))
	if err != nil {
		return fmt.Errorf("failed to clear drivers: %w", err)
	}
	printf(cmd, "All drivers deleted.\n")
	return nil
}

func runDriverExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	resp, err := newRaceClient().ExportDrivers(commandContext(cmd), connect.NewRequest(&rpc.ExportDriversRequest{}))
	if err != nil {
		return fmt.Errorf("failed to export drivers: %w", err)
	}

	data, err := race.MarshalExport(resp.Msg.Drivers)
	if err != nil {
		return err
	}

	if output == "-" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	printf(cmd, "Exported %d drivers to %s\n", len(resp.Msg.Drivers), output)
	return nil
}
