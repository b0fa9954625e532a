package system

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/ticktask/internal/api"
	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
)

type ServeCmd struct {
	Addr        string `help:"Listen address. Defaults to the config file value."`
	Dev         bool   `help:"Colorized console logging."`
	NoReminders bool   `help:"Do not run the reminder loop alongside the server."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Cfg()
	addr := c.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	logger := ctx.Slog(c.Dev || cfg.Server.Dev)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	srv := api.NewServer(addr, api.NewRouter(ctx.T(), logger, constants.Version), logger)
	g.Go(func() error { return srv.Run(gctx) })

	if !c.NoReminders {
		svc, err := newReminderService(ctx, logger, false)
		if err != nil {
			return err
		}
		g.Go(func() error { return svc.Run(gctx) })
	}

	logger.Info("ticktask serving", "addr", addr, "reminders", !c.NoReminders)
	return g.Wait()
}
