// Command enrichcore is the CLI for the legal-document enrichment
// pipeline.
//
// Usage:
//
//	enrichcore enrich --input brief.pdf --ontology folio.json
//	enrichcore serve --config config.yaml
//	enrichcore validate --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/foliolegal/enrichcore/pkg/config"
	"github.com/foliolegal/enrichcore/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Enrich   EnrichCmd   `cmd:"" help:"Run the enrichment pipeline against a single document."`
	Serve    ServeCmd    `cmd:"" help:"Start the enrichment HTTP/SSE server."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config    string `short:"c" help:"Path to config file (zero-config if omitted)." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose; any other value uses slog's plain text format)." default:"simple"`
}

// VersionCmd prints build version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("enrichcore version %s\n", version)
	return nil
}

// ValidateCmd loads and validates a configuration file without running
// anything.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(context.Background(), cli.Config)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	fmt.Printf("config OK: %d llm provider(s), default=%q, ontology=%q\n",
		len(cfg.LLMs), cfg.DefaultLLM, cfg.Ontology.Path)
	return nil
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.ZeroConfig(), nil
	}
	cfg, loader, err := config.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	loader.Close()
	return cfg, nil
}

func initLogging(level, file, format string) (func(), error) {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	out := os.Stderr
	cleanup := func() {}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		cleanup = func() { f.Close() }
	}
	logger.Init(lvl, out, format)
	return cleanup, nil
}

func withSignalCancel(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()
	return ctx, cancel
}

// shouldSkipBanner skips the banner for informational commands.
func shouldSkipBanner(args []string) bool {
	for _, a := range args {
		if a == "version" || a == "validate" {
			return true
		}
	}
	return false
}

func printBanner() {
	if fileInfo, err := os.Stdout.Stat(); err != nil || (fileInfo.Mode()&os.ModeCharDevice) == 0 {
		return
	}
	green := "\033[38;2;16;185;129m"
	reset := "\033[0m"
	banner := `
 _____ _   _ ____  ___ ____ _   _  ____ ___  ____  _____
| ____| \ | |  _ \|_ _/ ___| | | |/ ___/ _ \|  _ \| ____|
|  _| |  \| | |_) || | |   | |_| | |  | | | | |_) |  _|
| |___| |\  |  _ < | | |___|  _  | |__| |_| |  _ <| |___
|_____|_| \_|_| \_\___\____|_| |_|\____\___/|_| \_\_____|
`
	fmt.Printf("%s%s%s\n", green, banner, reset)
}

func main() {
	if !shouldSkipBanner(os.Args) {
		printBanner()
	}

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("enrichcore"),
		kong.Description("Legal document enrichment pipeline"),
		kong.UsageOnError(),
	)

	cleanup, err := initLogging(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}
