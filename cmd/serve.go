package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/encore/internal/server"
	"github.com/desertthunder/encore/internal/shared"
	"github.com/urfave/cli/v3"
)

// apiRouter wires the catalog repositories into the HTTP router.
//
// Files of the local storage driver are served under /media/ so their public URLs resolve.
func (r *Runner) apiRouter() (*server.BasicRouter, error) {
	songs, err := r.songs()
	if err != nil {
		return nil, err
	}
	releases, err := r.releases()
	if err != nil {
		return nil, err
	}
	videos, err := r.videos()
	if err != nil {
		return nil, err
	}
	settings, err := r.settings()
	if err != nil {
		return nil, err
	}

	mediaRoot := ""
	if r.config.Storage.Driver == shared.StorageLocal {
		mediaRoot = r.config.Storage.Local.Root
	}

	catalog := server.NewCatalogHandler(songs, releases, videos, settings)
	return server.NewAPIRouter(catalog, mediaRoot, shared.WithLogger(r.logger, "component", "http")), nil
}

// Serve runs the catalog API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	router, err := r.apiRouter()
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(addr, router, r.logger).Run(ctx)
}
