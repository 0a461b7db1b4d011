package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/tabula/internal/session"
	"github.com/KaramelBytes/tabula/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		addr := c.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		log := newLogger(c)
		opt, err := loadOptions(c, "", "", "")
		if err != nil {
			return err
		}

		store := session.NewStore(c.SessionTTL(), log)
		if err := store.StartSweeper(c.SweepSchedule); err != nil {
			return err
		}
		defer store.Stop()

		srv, err := web.New(store, web.Options{
			MaxUploadBytes:    int64(c.MaxUploadMB) << 20,
			PreviewRows:       c.PreviewRows,
			CookieSecure:      c.CookieSecure,
			RenderConcurrency: int64(c.RenderConcurrency),
			Chart:             chartOptions(c),
			Load:              opt,
		}, log)
		if err != nil {
			return err
		}
		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			fmt.Printf("✓ Serving on http://%s\n", addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info("shutting down")
			return httpSrv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config addr)")
}
