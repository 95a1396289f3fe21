package main

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"
)

// confirm returns true when --yes is set or the user answers y at the prompt.
// question should not include the [y/N] suffix.
func confirm(cmd *cobra.Command, question string) bool {
	if yes, err := cmd.Flags().GetBool("yes"); err == nil && yes {
		return true
	}

	printf(cmd, "%s [y/N]: ", question)

	response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
