package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"stnbot/internal/app"
	"stnbot/internal/site"
)

func init() {
	color.NoColor = true
}

func TestPrintPreview(t *testing.T) {
	tests := []struct {
		name string
		res  app.Result
		want []string
	}{
		{name: "baseline", res: app.Result{Baseline: true, Sites: 3}, want: []string{"baseline of 3 sites"}},
		{name: "unchanged", res: app.Result{Sites: 3}, want: []string{"nothing changed"}},
		{
			name: "threads",
			res:  app.Result{Sites: 2, Groups: [][]string{{"first", "second"}, {"third"}}},
			want: []string{"2 with changes", "thread 1", "  first", "  ↳ second", "thread 2", "  third"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printPreview(&buf, tt.res)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Fatalf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestRenderSnapshot(t *testing.T) {
	var buf bytes.Buffer
	renderSnapshot(&buf, site.Snapshot{
		{Name: "Alpha", Grade: "A", Score: 90, ValidHTTPS: true, HSTS: true, TwitterHandle: "alpha"},
		{Name: "Beta", Grade: "C", Score: 50},
	})
	out := buf.String()
	for _, w := range []string{"Alpha (@alpha)", "Beta", "2 SITES"} {
		if !strings.Contains(out, w) {
			t.Fatalf("output missing %q:\n%s", w, out)
		}
	}
}
