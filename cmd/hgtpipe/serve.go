package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/kermarrec/hgtpipe/internal/api"
	"github.com/kermarrec/hgtpipe/internal/orchestrator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve point elevation lookups over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		folder, err := tileFolder()
		if err != nil {
			return err
		}

		e := echo.New()
		api.RegisterRoutes(e, appCtx, folder)

		srv := &http.Server{
			Addr:    ":" + appCtx.Config.API.Port,
			Handler: e,
		}

		errCh := make(chan error, 1)
		go func() {
			appCtx.Logger.Info("serving elevations from %s on %s", folder, srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// tileFolder resolves the folder served tiles live in. With a catalog
// configured it is the catalog's folder, otherwise the working dir
// itself.
func tileFolder() (string, error) {
	if appCtx.Config.Dataset == "" {
		return appCtx.Config.WorkingDir, nil
	}
	_, folder, err := orchestrator.LoadDataset(appCtx)
	return folder, err
}
