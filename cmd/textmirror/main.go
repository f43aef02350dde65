// Package main is the entry point for the textmirror language server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dshills/textmirror/internal/backup"
	"github.com/dshills/textmirror/internal/config"
	"github.com/dshills/textmirror/internal/docstore"
	"github.com/dshills/textmirror/internal/script"
	"github.com/dshills/textmirror/internal/server"
	"github.com/dshills/textmirror/internal/words"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	log       = commonlog.GetLogger("textmirror")
	scriptLog = commonlog.GetLogger("textmirror.script")
)

type options struct {
	ConfigPath string
	LogFile    string
	LogLevel   string
	BackupPath string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}
	applyFlagOverrides(cfg, opts)

	// Logging goes to stderr or a file; the protocol owns stdout.
	if cfg.Log.File != "" {
		logFile := cfg.Log.File
		commonlog.Configure(verbosity(cfg.Log.Level), &logFile)
	} else {
		commonlog.Configure(verbosity(cfg.Log.Level), nil)
	}

	reg, err := cfg.WordRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	storeOpts := []docstore.Option{
		docstore.WithWordPatterns(reg),
		docstore.WithSaver(docstore.FileSaver{}),
		docstore.WithBackupErrors(func(uri string, err error) {
			log.Errorf("backup %s: %s", uri, err)
		}),
	}
	if le, ok := cfg.LineEnding(); ok {
		storeOpts = append(storeOpts, docstore.WithLineEnding(le))
	}

	var backups *backup.Store
	if cfg.Backup.Enabled {
		path, err := backupPath(cfg.Backup.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to resolve backup path: %v\n", err)
			return 1
		}
		backups, err = backup.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open backup store: %v\n", err)
			return 1
		}
		defer backups.Close()
		storeOpts = append(storeOpts, docstore.WithBackups(backups))
	}

	docs := docstore.New(storeOpts...)
	defer docs.CloseAll(context.Background())

	host := script.New(docs, script.WithOutput(func(line string) {
		scriptLog.Info(line)
	}))
	defer host.Close()
	for _, path := range cfg.Scripts {
		if err := host.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath, 0, func() {
			reloadConfig(opts.ConfigPath, reg)
		})
		if err != nil {
			log.Errorf("configuration watch: %s", err)
		} else {
			defer watcher.Close()
		}
	}

	if backups != nil {
		restored, err := docs.RestoreAll(context.Background())
		if err != nil {
			log.Errorf("restore backups: %s", err)
		}
		for _, uri := range restored {
			log.Infof("restored %s from backup", uri)
		}
	}

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		docs.CloseAll(context.Background())
		host.Close()
		if backups != nil {
			_ = backups.Close()
		}
		os.Exit(0)
	}()

	srv := server.New(cfg, docs, reg, host)
	if err := srv.RunStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// reloadConfig re-reads the file and refreshes the word patterns. EOL,
// backup, and logging changes take effect on the next start.
func reloadConfig(path string, reg *words.Registry) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Errorf("configuration reload: %s", err)
		return
	}
	for lang, pattern := range cfg.Words {
		if err := reg.Register(lang, pattern); err != nil {
			log.Errorf("configuration reload: %s", err)
		}
	}
	log.Infof("configuration reloaded from %s", path)
}

func applyFlagOverrides(cfg *config.Config, opts options) {
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.BackupPath != "" {
		cfg.Backup.Enabled = true
		cfg.Backup.Path = opts.BackupPath
	}
}

// backupPath resolves the backup database location, defaulting to the
// user cache directory.
func backupPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(cache, "textmirror")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups.db"), nil
}

// verbosity maps a log level to the commonlog scale, where 1 adds
// informational messages and 2 adds debug.
func verbosity(level string) int {
	switch level {
	case "debug":
		return 2
	case "info":
		return 1
	default:
		return 0
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogFile, "logfile", "", "Write logs to this file instead of stderr")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.BackupPath, "backup", "", "Hot-exit backup database path (enables backups)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "textmirror - text document mirror over the Language Server Protocol\n\n")
		fmt.Fprintf(os.Stderr, "Usage: textmirror [options]\n\n")
		fmt.Fprintf(os.Stderr, "The server reads the protocol from stdin and answers on stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("textmirror %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	return opts
}
