// ABOUTME: Entry point for the PCM relay server
// ABOUTME: Loads configuration, applies CLI overrides and runs the relay
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/pcm-relay/internal/config"
	"github.com/Resonate-Protocol/pcm-relay/internal/server"
	"github.com/Resonate-Protocol/pcm-relay/internal/version"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file")
	port        = flag.Int("port", config.DefaultPort, "Listening port (overrides PORT)")
	name        = flag.String("name", "", "Relay friendly name for mDNS (default: hostname)")
	snapshot    = flag.String("snapshot", "", "Snapshot file path (default: latest.wav)")
	window      = flag.Int("window", 0, "Rolling window in seconds (default: 60)")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI      = flag.Bool("tui", false, "Show the status TUI (logs go to the log file only)")
	logFile     = flag.String("log-file", "", "Log file path")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(); err != nil {
		log.Fatalf("Relay error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := setupLogging(cfg.Logging.File, *useTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Printf("Starting %s: %s on %s", version.String(), cfg.Discovery.Name, cfg.Addr())
	if cfg.Logging.Debug {
		log.Printf("Debug logging enabled")
	}
	if cfg.Logging.File != "" {
		log.Printf("Logging to: %s", cfg.Logging.File)
	}
	log.Printf("Press Ctrl-C to stop")

	srv, err := server.New(server.Config{Config: *cfg, UseTUI: *useTUI})
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	return srv.Start()
}

// applyFlags overrides cfg with every flag given on the command line
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Listen.Port = *port
		case "name":
			cfg.Discovery.Name = *name
		case "snapshot":
			cfg.Snapshot.Path = *snapshot
		case "window":
			cfg.Relay.WindowSeconds = *window
		case "debug":
			cfg.Logging.Debug = *debug
		case "no-mdns":
			cfg.Discovery.Enabled = !*noMDNS
		case "log-file":
			cfg.Logging.File = *logFile
		}
	})
}

// setupLogging sends logs to stdout and the log file, or only to the log
// file while the TUI owns the terminal.
func setupLogging(path string, tui bool) (func(), error) {
	if path == "" {
		if tui {
			log.SetOutput(io.Discard)
		}
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	if tui {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	return func() { _ = f.Close() }, nil
}
