package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stnbot/internal/app"
)

func init() {
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what the next run would post, without posting or saving.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(true)
		if err != nil {
			return err
		}
		defer s.close()

		r, err := app.BuildPreview(s.cfg, s.log)
		if err != nil {
			return err
		}
		defer r.Close()

		res, err := r.Preview(cmd.Context())
		if err != nil {
			return err
		}
		printPreview(cmd.OutOrStdout(), res)
		return nil
	},
}

func printPreview(w io.Writer, res app.Result) {
	head := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	green := color.New(color.FgGreen)

	switch {
	case res.Baseline:
		head.Fprintf(w, "No stored snapshot: the next run creates a baseline of %d sites and posts nothing.\n", res.Sites)
		return
	case len(res.Groups) == 0:
		head.Fprintf(w, "%d sites, nothing changed.\n", res.Sites)
		return
	}

	head.Fprintf(w, "%d sites, %d with changes:\n", res.Sites, len(res.Groups))
	for i, g := range res.Groups {
		fmt.Fprintln(w)
		dim.Fprintf(w, "thread %d\n", i+1)
		for j, text := range g {
			prefix := "  "
			if j > 0 {
				prefix = "  ↳ "
			}
			fmt.Fprint(w, prefix)
			green.Fprintln(w, text)
		}
	}
}
