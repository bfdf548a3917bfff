package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"avalanche-planner/pkg/planner"
)

var (
	routeSurface  string
	routeFrom     string
	routeTo       string
	routeSimplify float64

	routeCmd = &cobra.Command{
		Use:   "route",
		Short: "Compute one route and print it as GeoJSON",
		Example: "  planner route --surface windowed --from 2600000,1200000 --to 2601500,1198700\n" +
			"  planner route -c planner.yaml --surface mesh --from 2600000,1200000 --to 2601500,1198700",
		RunE: runRoute,
	}
)

func init() {
	routeCmd.Flags().StringVar(&routeSurface, "surface", string(planner.Windowed), "cost surface: classified, windowed or mesh")
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "start point as x,y in projected metres")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "end point as x,y in projected metres")
	routeCmd.Flags().Float64Var(&routeSimplify, "simplify", 0, "Douglas-Peucker tolerance in metres")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
}

func runRoute(cmd *cobra.Command, args []string) error {
	kind, err := planner.ParseKind(routeSurface)
	if err != nil {
		return err
	}
	start, err := parsePoint(routeFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	end, err := parsePoint(routeTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	data, err := planner.Load(cmd.Context(), cfg.Data, logger)
	if err != nil {
		return err
	}
	p := planner.New(data, cfg, logger)

	req := planner.Request{Surface: kind, Start: start, End: end, Simplify: routeSimplify}
	if kind == planner.Mesh {
		req.Progress = meshProgress()
	}

	route, err := p.ComputePath(cmd.Context(), req)
	if err != nil {
		return err
	}
	if !route.Found {
		logger.Warn("no route found", "stopped", route.Stopped, "explored", route.Explored)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(route.FeatureCollection())
}

// meshProgress draws a progress bar on stderr while the mesh graph is built.
func meshProgress() func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(15),
				progressbar.OptionSetDescription("[cyan][1/2][reset] building mesh graph..."),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}))
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
	}
}

func parsePoint(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("expected x,y, got %q", s)
	}
	var p orb.Point
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Point{}, fmt.Errorf("expected x,y, got %q", s)
		}
		p[i] = v
	}
	return p, nil
}
