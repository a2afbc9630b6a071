package main

import (
	"chat-rooms/infrastructure/push"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

func newVapidCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for Web Push",
		Args:  cobra.NoArgs,
		// Key generation needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVapidKeys(cmd.OutOrStdout())
		},
	}
}

func printVapidKeys(out io.Writer) error {
	vapid, err := push.GenerateVAPID()
	if err != nil {
		return withCode(exitRuntime, err)
	}
	label := color.New(color.FgCyan)
	_, err = fmt.Fprintf(out, "%s=%s\n%s=%s\n",
		label.Render("VAPID_PUBLIC_KEY"), vapid.PublicKey,
		label.Render("VAPID_PRIVATE_KEY"), vapid.PrivateKey)
	return err
}
