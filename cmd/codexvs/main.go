package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codexvs/codexvs/internal/analysis"
	"github.com/codexvs/codexvs/internal/config"
	"github.com/codexvs/codexvs/internal/db"
	"github.com/codexvs/codexvs/internal/display"
	"github.com/codexvs/codexvs/internal/wcl"
)

const usage = `usage: codexvs <command> [flags] <report-code>

commands:
  fights    list the fights of a report
  players   list the players of a fight
  events    fetch the replay events of a player
  codex     attribute Codex damage for a player (or -all)
  prune     delete stored API responses older than -older

flags:
`

var actions = map[string]bool{
	"fights":  true,
	"players": true,
	"events":  true,
	"codex":   true,
	"prune":   true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

type options struct {
	action   string
	code     string
	config   string
	fight    int
	player   string
	all      bool
	codex    bool
	logLevel string
	verbose  bool
	lang     string
	older    time.Duration
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("codexvs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.config, "config", "", "config file (default $CODEXVS_CONFIG or "+config.DefaultPath+")")
	fs.IntVar(&o.fight, "fight", 0, "fight id; prompts when omitted")
	fs.StringVar(&o.player, "player", "", "player id, Name or Name-Server; prompts when omitted")
	fs.BoolVar(&o.all, "all", false, "codex: analyze every eligible player of the fight")
	fs.BoolVar(&o.codex, "codex", false, "players: flag players wearing the Codex")
	fs.StringVar(&o.logLevel, "loglevel", "", "log level: debug, info, warn, error")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.StringVar(&o.lang, "lang", "en", "language for number formatting")
	fs.DurationVar(&o.older, "older", 30*24*time.Hour, "prune: age of responses to delete")

	if len(args) == 0 {
		fs.Usage()
		return o, flag.ErrHelp
	}
	o.action = args[0]
	if o.action == "-h" || o.action == "-help" || o.action == "--help" {
		fs.Usage()
		return o, flag.ErrHelp
	}
	if !actions[o.action] {
		fs.Usage()
		return o, fmt.Errorf("unknown command %q", o.action)
	}

	// Flags may appear before or after the report code.
	var positional []string
	rest := args[1:]
	for {
		if err := fs.Parse(rest); err != nil {
			return o, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	switch {
	case o.action == "prune":
		if len(positional) > 0 {
			return o, errors.New("prune takes no report code")
		}
	case len(positional) != 1:
		fs.Usage()
		return o, fmt.Errorf("%s needs exactly one report code, got %d", o.action, len(positional))
	default:
		o.code = positional[0]
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.ResolvePath(opts.config))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if opts.verbose {
		level = "debug"
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})))

	var store wcl.ResponseStore
	if cfg.Database.Enabled() {
		database, err := db.New(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(ctx, cfg.Database.DSN); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Debug("response store enabled")
		store = database.Responses()

		if opts.action == "prune" {
			return prune(ctx, database.Responses(), opts.older, stdout)
		}
	}
	if opts.action == "prune" {
		return errors.New("prune needs database.dsn or CODEXVS_DATABASE_DSN")
	}

	if !cfg.API.HasCredentials() {
		return fmt.Errorf("%w: set CODEXVS_TOKEN or CODEXVS_CLIENT_ID and CODEXVS_CLIENT_SECRET", wcl.ErrNoCredentials)
	}
	client, err := wcl.NewClient(ctx, wcl.Options{
		Endpoint:          cfg.API.Endpoint,
		TokenURL:          cfg.API.TokenURL,
		Token:             cfg.API.Token,
		ClientID:          cfg.API.ClientID,
		ClientSecret:      cfg.API.ClientSecret,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Timeout:           cfg.API.Timeout,
		PageLimit:         cfg.API.PageLimit,
		MaxRetries:        cfg.API.MaxRetries,
		Store:             store,
	})
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	settings, err := analysisSettings(cfg)
	if err != nil {
		return err
	}

	a := newApp(analysis.NewService(wcl.NewMemo(client), settings), stdin, stdout, display.ParseLanguage(opts.lang))
	return a.dispatch(ctx, opts)
}

func analysisSettings(cfg config.Config) (analysis.Settings, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return analysis.Settings{}, fmt.Errorf("building buff catalog: %w", err)
	}
	return analysis.Settings{
		Catalog:       catalog,
		Engine:        cfg.Attribution.EngineConfig(),
		Player:        cfg.Attribution.PlayerOptions(),
		Workers:       cfg.Workers,
		RequiredClass: cfg.Attribution.RequiredClass,
		RequiredSpec:  cfg.Attribution.RequiredSpec,
	}, nil
}

type pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

func prune(ctx context.Context, p pruner, older time.Duration, stdout io.Writer) error {
	n, err := p.Prune(ctx, time.Now().Add(-older))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Deleted %d stored responses\n", n)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
