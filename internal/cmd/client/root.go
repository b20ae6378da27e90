package client

import (
	"github.com/spf13/cobra"
)

// Commands returns the queue operation commands, ready to hang off an
// application root. baseURL supplies the HTTP API address at call time.
func Commands(baseURL BaseURLFunc) []*cobra.Command {
	return []*cobra.Command{
		NewSendCommand(baseURL),
		NewStatsCommand(baseURL),
		NewStatusCommand(baseURL),
		NewCompletionsCommand(baseURL),
		NewOptionsCommand(baseURL),
		NewDrainCommand(baseURL),
		NewWatchCommand(baseURL),
	}
}
