package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/geoinspect/internal/cli/helpers"
	"github.com/coral-mesh/geoinspect/internal/config"
	"github.com/coral-mesh/geoinspect/pkg/debugger"
	"github.com/coral-mesh/geoinspect/pkg/debugger/sim"
	"github.com/coral-mesh/geoinspect/pkg/extract"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

var loadFormats = []helpers.OutputFormat{helpers.FormatText, helpers.FormatWKT, helpers.FormatJSON}

type loadFlags struct {
	kinds      []string
	format     string
	parsedOnly bool
	timeout    time.Duration
}

func newLoadCmd(g *globalFlags) *cobra.Command {
	f := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "load SNAPSHOT [NAME...]",
		Short: "Load variables of a debuggee snapshot as geometries",
		Long: `Load variables of a debuggee snapshot as geometries.

A snapshot is a YAML file describing variables of a simulated debuggee.
Every variable is loaded when no NAME is given. A NAME may join several
expressions with the configured separator to zip containers of numbers
into points, as in "xs;ys".

Examples:
  geoinspect load snapshot.yaml poly
  geoinspect load snapshot.yaml "xs;ys" --format wkt
  geoinspect load snapshot.yaml --kind Point,Box --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, g, f, args[0], args[1:])
		},
	}

	cmd.Flags().StringSliceVarP(&f.kinds, "kind", "k", nil, "Restrict loaders to these kinds (e.g. Point,Box,MultiGeometry)")
	cmd.Flags().BoolVar(&f.parsedOnly, "parsed-only", false, "Disable raw memory reads")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Override the per-load timeout")
	helpers.AddFormatFlag(cmd, &f.format, helpers.FormatText, loadFormats)
	return cmd
}

func parseKinds(names []string) (loader.KindSet, error) {
	if len(names) == 0 {
		return loader.DrawableKinds, nil
	}
	var set loader.KindSet
	for _, n := range names {
		k, err := config.ParseKind(strings.TrimSpace(n))
		if err != nil {
			return 0, err
		}
		set |= loader.KindsOf(k)
	}
	return set, nil
}

func runLoad(cmd *cobra.Command, g *globalFlags, f *loadFlags, snapshot string, names []string) error {
	format, err := helpers.ValidateFormat(f.format, loadFormats)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(f.kinds)
	if err != nil {
		return err
	}
	cfg, logger, err := g.setup(cmd)
	if err != nil {
		return err
	}
	if f.timeout > 0 {
		cfg.Extraction.Timeout = f.timeout
	}

	p, err := sim.LoadSnapshotFile(snapshot)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = p.Vars()
	}
	var d debugger.Debugger = p
	if f.parsedOnly {
		d = debugger.ParsedOnly(p)
	}

	reg, err := registry(cfg, logger)
	if err != nil {
		return err
	}
	e := extract.New(d, reg, cfg.ExtractOptions(), logger)

	entries := make([]entry, 0, len(names))
	var loaded []*extract.Result
	for _, n := range names {
		res, err := e.Load(cmd.Context(), n, kinds)
		entries = append(entries, entry{name: n, result: res, err: err})
		if err == nil {
			loaded = append(loaded, res)
		}
	}
	_, mismatch := extract.CheckTraits(loaded...)

	out := cmd.OutOrStdout()
	switch format {
	case helpers.FormatJSON:
		err = helpers.WriteJSON(out, jsonReport(entries, mismatch))
	case helpers.FormatWKT:
		err = writeWKT(out, entries)
	default:
		err = writeText(out, entries, mismatch)
	}
	if err != nil {
		return err
	}

	if failed := countFailed(entries); failed == len(entries) {
		return fmt.Errorf("no value could be loaded")
	}
	if mismatch != nil {
		return fmt.Errorf("values cannot be drawn together: %w", mismatch)
	}
	return nil
}

func countFailed(entries []entry) int {
	n := 0
	for _, e := range entries {
		if e.err != nil {
			n++
		}
	}
	return n
}
