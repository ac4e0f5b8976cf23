package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:           "todo-server",
		Short:         "Serve a JSON-file backed todo list over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configFile, ".env")
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default ./config.yaml or $HOME/.config/todo-server/config.yaml)")
	flags.Int("port", defaultPort, "TCP port to listen on")
	flags.String("data", defaultTodosFile, "JSON file holding the todos")
	flags.String("log-file", defaultLogFile, "append-only request log")
	flags.String("log-level", "info", "console log level (debug, info, warn, error)")
	flags.String("log-format", "text", "console log format (text, json, logfmt)")
	flags.Float64("rate-limit", 0, "requests per second allowed per client, 0 disables")
	flags.Bool("sanitize-titles", false, "strip HTML markup from todo titles")
	flags.BoolP("verbose", "v", false, "enable debug console output")

	for key, flag := range map[string]string{
		"port":            "port",
		"data_file":       "data",
		"log_file":        "log-file",
		"log_level":       "log-level",
		"log_format":      "log-format",
		"rate_limit":      "rate-limit",
		"sanitize_titles": "sanitize-titles",
		"verbose":         "verbose",
	} {
		v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func serve(ctx context.Context, cfg Config) error {
	console := newConsole(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	logger := NewFileLogger(cfg.LogFile, console)
	defer logger.Close()

	store := NewStore(cfg.DataFile, console)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	console.Info(fmt.Sprintf("Server running on http://localhost:%d", cfg.Port))

	return runServer(ctx, ln, newRouter(store, logger, console, routerOptions{
		RateLimit:      cfg.RateLimit,
		SanitizeTitles: cfg.SanitizeTitles,
	}), console)
}

// runServer serves on ln until ctx is cancelled, then drains in-flight
// requests.
func runServer(ctx context.Context, ln net.Listener, h http.Handler, console *log.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	console.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
