package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/iammorganparry/clive/apps/regression/internal/config"
	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/remote"
	"github.com/iammorganparry/clive/apps/regression/internal/store"
	"github.com/iammorganparry/clive/apps/regression/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to a file when asked.
	var logOut io.Writer = io.Discard
	if cfg.TUILogPath != "" {
		f, err := os.OpenFile(cfg.TUILogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	var opts []lifecycle.Option
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		defer db.Close()
		opts = append(opts, lifecycle.WithRecorder(store.NewHistoryStore(db)))
	}

	service := remote.NewClient(cfg.AnalysisServiceURL, cfg.AnalysisTimeout)
	ctrl := lifecycle.New("tui", service, logger, opts...)

	p := tea.NewProgram(
		tui.NewModel(ctrl, plot.NewCache(cfg.PlotCacheSize), cfg.ReportDir),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
