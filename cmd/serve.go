package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fora/internal/server"
	"fora/internal/social"
	"fora/internal/store"

	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "Override the listen address."},
			&cli.BoolFlag{Name: "debug", Usage: "Return internal error messages and disable panic recovery."},
			&cli.BoolFlag{Name: "quiet", Usage: "Do not log requests."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			session := store.NewSession(e.storage, e.logger)
			if err := session.Hydrate(c.Context); err != nil {
				return err
			}

			me := social.DefaultMe
			if usr, ok := session.User(); ok {
				me = usr.ID
			}

			address := e.cfg.Server.Address
			if c.IsSet("address") {
				address = c.String("address")
			}

			srv := server.NewServer(server.Options{
				Address:        address,
				DisableReqLogs: c.Bool("quiet"),
				Debug:          c.Bool("debug"),
				Logger:         e.logger,
				Store:          e.store,
				Session:        session,
				Social:         social.NewDirectory(me, e.logger),
				Location:       e.loc,
			})

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				e.logger.Info("Starting server.", "address", address)
				errc <- srv.Start()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			e.logger.Info("Shutting down server.", "timeout", e.cfg.Server.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errc
		},
	}
}
