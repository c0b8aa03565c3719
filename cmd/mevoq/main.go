// mevoq serves the Mevoq website and manages its data.
//
//	mevoq serve [--config file]        run the web server
//	mevoq seed [--config file]         write sample content into empty collections
//	mevoq create-admin --email --password
//	mevoq version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	site "github.com/mevoq/site"
	"github.com/mevoq/site/backend"
	"github.com/mevoq/site/backend/sqlstore"
	"github.com/mevoq/site/content"
	"github.com/mevoq/site/logging"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return runServe(rest)
	case "seed":
		return runSeed(rest)
	case "create-admin":
		return runCreateAdmin(rest)
	case "version":
		fmt.Printf("mevoq %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage() {
	fmt.Println(`mevoq - pharmaceutical regulatory consulting website

Usage:
  mevoq serve [--config file]           Run the web server
  mevoq seed [--config file]            Insert sample testimonials, services and team
  mevoq create-admin --email --password Create an admin account
  mevoq version                         Print the version

Configuration is read from the YAML file given by --config, then from
MEVOQ_* environment variables (MEVOQ_SESSION_SECRET, MEVOQ_DATABASE_PATH, ...).`)
}

// setup parses flags, loads configuration and starts logging.
func setup(name string, args []string, extra func(*pflag.FlagSet)) (site.SiteConfig, *zap.SugaredLogger, error) {
	var configPath string
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return site.SiteConfig{}, nil, err
	}

	cfg, err := site.LoadConfig(configPath)
	if err != nil {
		return site.SiteConfig{}, nil, err
	}
	log, err := logging.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return site.SiteConfig{}, nil, err
	}
	return cfg, log, nil
}

func runServe(args []string) error {
	cfg, log, err := setup("serve", args, nil)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := site.New(cfg, site.WithLogger(log))
	if err := app.Init(ctx); err != nil {
		return err
	}
	defer app.Close()

	log.Infow("config loaded", "name", cfg.Name, "url", cfg.URL, "database", cfg.DatabasePath, "sample_fallback", cfg.Fallback())
	return app.Run(ctx)
}

func runSeed(args []string) error {
	cfg, log, err := setup("seed", args, nil)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := sqlstore.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := content.Seed(ctx, store, time.Now())
	if err != nil {
		return err
	}
	if len(res) == 0 {
		log.Infow("nothing to seed; collections already have data")
		return nil
	}
	collections := make([]string, 0, len(res))
	for c := range res {
		collections = append(collections, string(c))
	}
	sort.Strings(collections)
	for _, c := range collections {
		log.Infow("seeded", "collection", c, "records", res[backend.Collection(c)])
	}
	return nil
}

func runCreateAdmin(args []string) error {
	var email, password string
	cfg, log, err := setup("create-admin", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&email, "email", "", "admin email address")
		fs.StringVar(&password, "password", "", "admin password (or MEVOQ_ADMIN_PASSWORD)")
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if password == "" {
		password = os.Getenv("MEVOQ_ADMIN_PASSWORD")
	}
	if email == "" || password == "" {
		return errors.New("create-admin: --email and --password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := sqlstore.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := sqlstore.NewAuth(store, cfg.SessionTTL).CreateUser(ctx, email, password); err != nil {
		return fmt.Errorf("create-admin: %w", err)
	}
	log.Infow("admin created", "email", email)
	return nil
}
