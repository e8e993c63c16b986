package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"book_creator/server"
	"book_creator/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web form",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		store := session.NewStore(a.cfg.Server.SessionTTL, func(id string) {
			if err := a.outputs.Remove(id); err != nil {
				a.logger.WithError(err).WithField("session", id).Warn("remove expired session output")
				return
			}
			a.logger.WithField("session", id).Debug("session expired")
		})
		srv, err := server.New(a.runner, store, a.outputs, a.logger, a.cfg.Server.MaxUploadMB<<20)
		if err != nil {
			return err
		}

		listen := a.cfg.Server.Addr
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			listen = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if ttl := a.cfg.Server.SessionTTL; ttl > 0 {
			go store.Run(ctx, sweepInterval(ttl))
		}

		httpSrv := &http.Server{
			Addr:              listen,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			a.logger.WithField("addr", listen).Info("starting web server")
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Minute {
		return d
	}
	return time.Minute
}

func init() {
	serveCmd.Flags().String("addr", "", "http listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
