package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Todo API CLI",
	Long: `Command line interface for the Todo API.

The API address comes from TODO_API_URL (default http://localhost:8080) and the
access token is kept in TODO_TOKEN_FILE (default ~/.todo_token).`,
	SilenceUsage: true,
}

// GetRoot returns the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
