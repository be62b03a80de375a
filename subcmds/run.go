// Copyright (c) 2025 StratX21

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/nightlyone/lockfile"
	"github.com/stratx21/scraperbot/api"
	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/ctxutil"
	"github.com/stratx21/scraperbot/httputil"
	"github.com/stratx21/scraperbot/server"
	"github.com/stratx21/scraperbot/subcmds/cmdutil"
	"github.com/visvasity/sglog"
)

type Run struct {
	cmdutil.ServerFlags

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	secretsPath string
	dataDir     string
}

func (c *Run) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	return fset, cli.CmdFunc(c.run)
}

func (c *Run) Synopsis() string {
	return "Runs the scraperbot service in the foreground"
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not load .env file: %w", err)
	}

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".scraperbot")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		return err
	}

	ip := net.ParseIP(c.IP)
	if ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   ip,
		Port: c.Port,
	}

	logsDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0700); err != nil {
		return fmt.Errorf("could not create logs directory %q: %w", logsDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{logsDir},
	})
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	log.SetFlags(log.Flags() | log.Lmicroseconds)
	log.Printf("using data directory %s and secrets file %s", dataDir, c.secretsPath)

	lockPath := filepath.Join(dataDir, "scraperbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			log.Printf("waiting for the previous instance to shutdown")
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start the http server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.StartTCP(ctx, addr); err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(dataDir)
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodDBKey)

	s.AddHandler(api.DBPath, http.StripPrefix("/db", kvhttp.Handler(db)))

	// Start the scraper service.
	svc, err := server.New(ctx, secrets, db, nil /* opts */)
	if err != nil {
		return err
	}
	defer svc.Close()

	svcAPIs := svc.HandlerMap()
	for k, v := range svcAPIs {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range svcAPIs {
			s.RemoveHandler(k)
		}
	}()

	s.AddHandler(api.PidPath, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	log.Printf("started scraperbot server at %s", addr)

	<-ctx.Done()
	log.Printf("scraperbot server is shutting down")
	return nil
}
