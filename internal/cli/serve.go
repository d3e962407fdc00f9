package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/components/optionsapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render and options endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				handler, pattern, err := a.router()
				if err != nil {
					return err
				}
				if addr == "" {
					addr = a.settings.Server.Addr
				}

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				server := &http.Server{
					Addr:              addr,
					Handler:           handler,
					ReadHeaderTimeout: 5 * time.Second,
				}
				errCh := make(chan error, 1)
				go func() {
					errCh <- server.ListenAndServe()
				}()
				color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", pattern, addr)

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				a.logger.Info("shutting down", zap.String("addr", addr))
				return server.Shutdown(shutdownCtx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// router mounts the options API under the configured base path.
func (a *app) router() (http.Handler, string, error) {
	orch, err := a.orchestrator()
	if err != nil {
		return nil, "", err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	component := optionsapi.New(orch,
		optionsapi.WithRoutePath(a.settings.Server.RoutePath),
		optionsapi.WithLogger(a.logger.Named("http")),
	)
	pattern, err := component.RegisterRoutes(r, a.settings.Server.BasePath)
	if err != nil {
		return nil, "", err
	}
	return r, pattern, nil
}
