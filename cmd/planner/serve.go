package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"avalanche-planner/pkg/planner"
	"avalanche-planner/pkg/server"
	"avalanche-planner/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the routing API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := planner.Load(ctx, cfg.Data, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path, cfg.Store.InMemory)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p := planner.New(data, cfg, logger, planner.WithStore(st), planner.WithMetrics(planner.NewMetrics(reg)))
	if len(p.Available()) == 0 {
		return fmt.Errorf("no surface data configured")
	}
	logger.Info("surfaces available", "surfaces", p.Available())

	return server.Run(ctx, server.NewRouter(p, cfg.Server, logger, reg), cfg.Server, logger)
}

