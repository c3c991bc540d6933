package main

import (
	"context"

	"github.com/desertthunder/listx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the import HTTP API until ctx is canceled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.cfg().Server.Addr()
	}

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	var store server.RunStore
	if repo, err := r.runs(); err != nil {
		r.logger.Warn("import history endpoints disabled", "error", err)
	} else {
		store = repo
	}

	router := server.NewAPIRouter(engine, store, r.logger)
	r.logger.Info("serving import API", "addr", addr)
	return server.New(addr, router, r.logger).ListenAndServe(ctx)
}
