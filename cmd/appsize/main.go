// Command appsize evaluates App Thinning Size Reports and Android bundletool
// size tables against a size limit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/appsize/internal/apperr"
	"github.com/JonMunkholm/appsize/internal/config"
	"github.com/JonMunkholm/appsize/internal/logging"
	"github.com/JonMunkholm/appsize/internal/service"
	"github.com/JonMunkholm/appsize/internal/store"
	"github.com/JonMunkholm/appsize/internal/web"
)

const usage = `usage: appsize <command> [flags] <file>

commands:
  ios-json <report>      print the variants of an App Thinning Size Report as JSON
  ios <report>           evaluate an App Thinning Size Report
  android <bundle.aab>   build APKs with bundletool and evaluate their sizes
  android-csv <csv>      evaluate an existing bundletool size CSV
  serve                  start the HTTP API

Run 'appsize <command> -h' for the flags of a command.
`

func main() {
	loadDotenv(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// loadDotenv overlays .env files (default ".env") onto the environment. A
// missing file is normal; any other error is reported and loading goes on
// with the process environment.
func loadDotenv(stderr io.Writer, files ...string) {
	if err := godotenv.Overload(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "warning: load .env: %v\n", err)
	}
}

// run executes one command and returns the process exit code: 0 on
// success, 1 when an evaluation failed or errored, 2 on usage errors.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 2
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, stderr)
	slog.Debug("configuration loaded", "config", cfg.String())

	app := &cli{cfg: cfg, stdout: stdout, stderr: stderr}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "ios-json":
		err = app.iosJSON(ctx, rest)
	case "ios":
		err = app.ios(ctx, rest)
	case "android":
		err = app.android(ctx, rest)
	case "android-csv":
		err = app.androidCSV(ctx, rest)
	case "serve":
		err = app.serve(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case isUsage(err):
		fmt.Fprintln(stderr, err)
		return 2
	case err == errFailed:
		return 1
	}
	slog.Debug("command failed", "command", cmd, "error", err)
	fmt.Fprintf(stderr, "error: %s\n", apperr.Format(err))
	return 1
}

// openStore connects to the history database, or returns nil when none is
// configured.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return st, nil
}

// newService builds the service, recording runs in st when it is non-nil.
func newService(cfg *config.Config, st *store.Store, opts ...service.Option) *service.Service {
	if st != nil {
		opts = append(opts, service.WithHistory(st))
	}
	return service.New(cfg, opts...)
}

func (c *cli) serve(ctx context.Context) error {
	st, err := openStore(ctx, c.cfg.Database)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	server := web.NewServer(newService(c.cfg, st, c.opts...), c.cfg.Server)

	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	if st != nil {
		go store.StartRetention(jobCtx, st, c.cfg.Retention)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && ctx.Err() == nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
