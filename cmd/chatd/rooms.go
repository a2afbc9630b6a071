package main

import (
	"chat-rooms/domain/chat"
	"chat-rooms/internal"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type roomsOptions struct {
	*rootOptions
	asJSON bool
}

// newRoomsCommand inspects the configured store offline.
// Badger holds a directory lock, so run it while the server is stopped.
func newRoomsCommand(root *rootOptions) *cobra.Command {
	opts := &roomsOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List the rooms of the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRooms(cmd.Context(), opts.config, opts.asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the persisted room records as JSON")
	return cmd
}

func listRooms(ctx context.Context, config internal.Config, asJSON bool, out io.Writer) error {
	logger := logs.GetLoggerFromString("ERROR")
	st, err := openStores(ctx, config, logger)
	if err != nil {
		return withCode(exitRuntime, err)
	}
	defer st.close(logger)

	summaries, err := st.chats.ListAll(ctx)
	if err != nil {
		return withCode(exitRuntime, err)
	}
	rooms := make([]chat.Room, 0, len(summaries))
	for _, summary := range summaries {
		room, err := st.chats.Get(ctx, summary.ID)
		if err != nil {
			return withCode(exitRuntime, err)
		}
		rooms = append(rooms, room)
	}

	if asJSON {
		records := make([]chat.Record, 0, len(rooms))
		for _, room := range rooms {
			records = append(records, room.Record())
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(rooms) == 0 {
		_, err := fmt.Fprintln(out, color.New(color.FgYellow).Render("No room yet"))
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Name", "Messages", "Last message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range rooms {
		last := ""
		if n := len(room.Messages); n > 0 {
			last = room.Messages[n-1].Format()
		}
		table.Append([]string{room.ID.String(), room.Name, strconv.Itoa(len(room.Messages)), last})
	}
	table.Render()

	_, err = fmt.Fprintln(out, color.New(color.FgGreen).Render(fmt.Sprintf("%d room(s)", len(rooms))))
	return err
}
