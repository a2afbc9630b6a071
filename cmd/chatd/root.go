package main

import (
	"chat-rooms/internal"
	"fmt"

	"github.com/Netflix/go-env"
	"github.com/spf13/cobra"
)

// rootOptions is shared by every subcommand once the environment is decoded.
type rootOptions struct {
	config internal.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chatd",
		Short:         "Real-time group chat server",
		Long:          "chatd serves chat rooms over WebSocket and notifies offline members with Web Push.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := env.UnmarshalFromEnviron(&opts.config); err != nil {
				return withCode(exitConfig, fmt.Errorf("config error: %w", err))
			}
			return withCode(exitConfig, opts.config.Validate())
		},
	}

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRoomsCommand(opts))
	cmd.AddCommand(newVapidCommand())

	return cmd
}
