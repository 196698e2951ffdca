package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nearby/internal/autocomplete"
	"nearby/internal/resolve"
	"nearby/internal/server"
	"nearby/internal/suggest"
	"nearby/pkg/graceful"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the suggestion and search API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := graceful.Context(cmd.Context())
		defer cancel()

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		agg := suggest.NewAggregator(a.categories, a.source(), func(suggest.Update) {})
		defer agg.Close()
		places := autocomplete.New(a.geocoder, a.prefs, func(autocomplete.Update) {})
		defer places.Close()
		resolver := resolve.New(a.geocoder, a.prefs, func(context.Context, resolve.Resolution) error { return nil })

		srv := &http.Server{
			Addr: ":" + cfg.Port,
			Handler: server.NewRouter(server.Config{
				Suggester: agg,
				Places:    places,
				Addresses: resolver,
				Emitter:   a.emitter,
				Profile:   cfg.Profile,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		return graceful.Shutdown(ctx, 10*time.Second, srv.Shutdown)
	},
}
