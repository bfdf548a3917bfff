package planner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"avalanche-planner/pkg/config"
	"avalanche-planner/pkg/hazard"
	"avalanche-planner/pkg/mesh"
	"avalanche-planner/pkg/raster"
)

// Datasets holds the loaded inputs of every surface. Nil fields are
// unavailable.
type Datasets struct {
	// Hazard is the RGBA classified terrain for the classified grid.
	Hazard raster.Source
	// Categories is the single-band category raster for the windowed
	// surface. It also supplies edge categories to the mesh.
	Categories raster.Source
	// Mask overrides Categories with the route class where set.
	Mask raster.Source
	// Routes are burnt into windows as an additional mask.
	Routes *hazard.RouteIndex
	// Mesh and Terrain back the mesh surface; Terrain supplies the
	// georeferencing the mesh was generated in.
	Mesh    *mesh.Mesh
	Terrain raster.Source
}

// Load opens the configured datasets concurrently. The first failure
// cancels the rest and is returned.
func Load(ctx context.Context, cfg config.DataConfig, logger *slog.Logger) (*Datasets, error) {
	d := &Datasets{}
	g, ctx := errgroup.WithContext(ctx)

	openRaster := func(name, path string, dst *raster.Source) {
		if path == "" {
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := raster.Open(path)
			if err != nil {
				return fmt.Errorf("planner: load %s: %w", name, err)
			}
			h, w := ds.Size()
			logger.Info("raster loaded", "dataset", name, "path", path, "height", h, "width", w, "bands", ds.Bands())
			*dst = ds
			return nil
		})
	}
	openRaster("hazard", cfg.Hazard, &d.Hazard)
	openRaster("categories", cfg.Categories, &d.Categories)
	openRaster("mask", cfg.Mask, &d.Mask)
	openRaster("terrain", cfg.Terrain, &d.Terrain)

	if cfg.Mesh != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := mesh.Load(cfg.Mesh)
			if err != nil {
				return fmt.Errorf("planner: load mesh: %w", err)
			}
			logger.Info("mesh loaded", "path", cfg.Mesh, "vertices", len(m.Vertices), "triangles", len(m.Triangles))
			d.Mesh = m
			return nil
		})
	}
	if cfg.Routes != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx, err := hazard.LoadRoutes(cfg.Routes, logger)
			if err != nil {
				return fmt.Errorf("planner: load routes: %w", err)
			}
			d.Routes = idx
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if d.Mesh != nil && d.Terrain == nil {
		logger.Warn("mesh configured without terrain raster, mesh surface unavailable")
	}
	if d.Mask != nil && d.Categories == nil {
		logger.Warn("mask configured without category raster, ignoring")
	}
	return d, nil
}

// Available reports whether the data of surface k is loaded.
func (d *Datasets) Available(k Kind) bool {
	switch k {
	case Classified:
		return d.Hazard != nil
	case Windowed:
		return d.Categories != nil
	case Mesh:
		return d.Mesh != nil && d.Terrain != nil
	}
	return false
}
