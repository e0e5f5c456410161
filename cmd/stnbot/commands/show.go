package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"stnbot/internal/app"
	"stnbot/internal/site"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored snapshot.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(true)
		if err != nil {
			return err
		}
		defer s.close()

		store, err := app.OpenStore(s.cfg, s.log)
		if err != nil {
			return err
		}
		defer store.Close()

		snap, ok, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no snapshot stored yet")
			return nil
		}
		renderSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func renderSnapshot(w io.Writer, snap site.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Site", "Grade", "Score", "HTTPS", "Default", "HSTS", "Preload"})
	for _, r := range snap {
		t.AppendRow(table.Row{
			r.DisplayName(), r.Grade, r.Score,
			mark(r.AvailableOverHTTPS()), mark(r.DefaultsToHTTPS), mark(r.HSTS), mark(r.HSTSPreloaded),
		})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d sites", len(snap))})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
