package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/manor-engine/internal/config"
	"github.com/jwebster45206/manor-engine/internal/logger"
	slots "github.com/jwebster45206/manor-engine/internal/storage"
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/save"
	"github.com/jwebster45206/manor-engine/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.ConsoleLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file %s: %v\n", cfg.ConsoleLog, err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close()
	}()
	log := logger.New(logFile, cfg)

	content, err := catalog.Load(cfg.ContentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	if err := content.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Catalog is invalid:\n%v\n", err)
		os.Exit(1)
	}

	var slot storage.Slot
	sqliteSlot, err := slots.OpenSQLiteSlot(cfg.SQLitePath, log)
	if err != nil {
		log.Warn("SQLite save slot unavailable, progress will not survive exit", "error", err, "path", cfg.SQLitePath)
		fmt.Fprintf(os.Stderr, "Saving disabled: %v\n", err)
		slot = storage.NewMemorySlot()
	} else {
		slot = sqliteSlot
	}
	defer func() {
		_ = slot.Close()
	}()

	adapter := save.New(slot, cfg.SaveKey, content, log)
	ui := NewConsoleUI(context.Background(), content, adapter, clipboard.WriteAll, log)

	p := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
