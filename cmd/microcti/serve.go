package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/httpapi"
	"github.com/esoadamo/micro-cti-go/internal/scheduler"
	"github.com/esoadamo/micro-cti-go/internal/web"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job scheduler together",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		deps, cleanup, err := loadDeps(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		hub := web.NewHub()
		go hub.Run()

		sched, err := scheduler.New(deps.Dirs.Data, deps.Dirs.Log)
		if err != nil {
			return err
		}
		sched.OnLine = hub.BroadcastLine

		srv := &httpapi.Server{
			Engine:   deps.Engine,
			Store:    deps.Store,
			Adapters: deps.Adapters,
			MISPOrg:  deps.Config.MISPOrg,
			Hub:      hub,
		}
		httpServer := &http.Server{Addr: listenAddr, Handler: srv.Routes()}

		errs := make(chan error, 2)
		go func() {
			log.Printf("serve: listening on %s", listenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
		go func() {
			errs <- sched.Run(ctx)
		}()

		select {
		case <-ctx.Done():
		case err := <-errs:
			if err != nil {
				log.Printf("serve: %v", err)
			}
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}
