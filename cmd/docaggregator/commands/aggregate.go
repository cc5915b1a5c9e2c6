package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docaggregator/internal/config"
	"git.home.luguber.info/inful/docaggregator/internal/content"
	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
	"git.home.luguber.info/inful/docaggregator/internal/logfields"
	"git.home.luguber.info/inful/docaggregator/internal/metrics"
)

// AggregateCmd implements the 'aggregate' command.
type AggregateCmd struct {
	JSON        bool   `help:"Print the aggregate as JSON instead of a summary"`
	Fetch       bool   `help:"Fetch updates for cached repositories"`
	Quiet       bool   `short:"q" help:"Do not draw progress bars"`
	Silent      bool   `help:"Suppress progress bars and warnings"`
	CacheDir    string `name:"cache-dir" help:"Override runtime.cache_dir"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file after the run"`
	CloneDepth  int    `name:"clone-depth" default:"1" help:"History depth of clones and fetches (0 transfers everything)"`
}

// apply lets flags override the playbook's runtime settings.
func (a *AggregateCmd) apply(pb *config.Playbook) {
	if a.Fetch {
		pb.Runtime.Fetch = true
	}
	if a.Quiet {
		pb.Runtime.Quiet = true
	}
	if a.Silent {
		pb.Runtime.Silent = true
	}
	if a.CacheDir != "" {
		pb.Runtime.CacheDir = a.CacheDir
	}
}

func (a *AggregateCmd) Run(g *Global, root *CLI) error {
	pb, err := loadPlaybook(root.Playbook)
	if err != nil {
		return err
	}
	a.apply(pb)
	if pb.Runtime.Silent && !root.Verbose {
		g.Level.Set(slog.LevelError)
	}

	opts := []content.Option{
		content.WithLogger(g.Logger),
		content.WithCloneDepth(a.CloneDepth),
	}
	if a.JSON {
		// keep stdout parseable
		opts = append(opts, content.WithProgressOutput(os.Stderr))
	}
	var reg *prom.Registry
	if a.MetricsFile != "" {
		reg = prom.NewRegistry()
		opts = append(opts, content.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	}

	aggregate, runErr := content.New(pb, opts...).Aggregate(g.Context)
	if reg != nil {
		if err := metrics.WriteTextfile(a.MetricsFile, reg); err != nil {
			if runErr == nil {
				return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, err.Error()).Build()
			}
			g.Logger.Warn("Failed to write metrics file", logfields.Path(a.MetricsFile), logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if a.JSON {
		return writeJSON(g.Out, aggregate)
	}
	return writeSummary(g.Out, aggregate)
}

func writeJSON(w io.Writer, aggregate []*content.ComponentVersion) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if aggregate == nil {
		aggregate = []*content.ComponentVersion{}
	}
	if err := enc.Encode(aggregate); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "cannot encode aggregate").Build()
	}
	return nil
}

func writeSummary(w io.Writer, aggregate []*content.ComponentVersion) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COMPONENT\tVERSION\tFILES\tREFS")
	for _, cv := range aggregate {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", cv.Name, cv.Version, len(cv.Files), strings.Join(refNames(cv), ", "))
	}
	return tw.Flush()
}

// refNames lists the distinct references the files of cv came from.
func refNames(cv *content.ComponentVersion) []string {
	var out []string
	for _, f := range cv.Files {
		if f.Src.Origin == nil {
			continue
		}
		name := f.Src.Origin.RefName()
		if f.Src.Origin.Worktree {
			name += " <worktree>"
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
