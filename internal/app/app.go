// Package app assembles the sync client: configuration, session identity,
// the log pipeline, the stream client, and the console, wired together and
// torn down in order.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TARATRAOVO/rhodes-resonance/internal/config"
	"github.com/TARATRAOVO/rhodes-resonance/internal/control"
	"github.com/TARATRAOVO/rhodes-resonance/internal/dispatch"
	"github.com/TARATRAOVO/rhodes-resonance/internal/journal"
	"github.com/TARATRAOVO/rhodes-resonance/internal/logging"
	loggingSinks "github.com/TARATRAOVO/rhodes-resonance/internal/logging/sinks"
	"github.com/TARATRAOVO/rhodes-resonance/internal/runctl"
	"github.com/TARATRAOVO/rhodes-resonance/internal/session"
	"github.com/TARATRAOVO/rhodes-resonance/internal/stream"
	"github.com/TARATRAOVO/rhodes-resonance/internal/ui"
	"github.com/TARATRAOVO/rhodes-resonance/internal/world"
)

func Run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the console; diagnostics go to stderr.
	logger := log.New(os.Stderr, "", log.LstdFlags)

	token := cfg.SessionToken
	if token == "" {
		token = session.LoadOrCreate(cfg.SessionFile, logger)
	}

	router, err := buildRouter(cfg, token, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	tracker := stream.NewTracker()
	projection := world.NewProjection()
	machine := runctl.NewMachine()
	entries := journal.New(cfg.LogEntries, cfg.LogMaxAge)

	controlClient := control.NewClient(control.ClientConfig{
		BaseURL:      cfg.ServerURL,
		SessionToken: token,
		Logger:       logger,
	})

	// The stream goroutine pushes repaint signals into the program; the
	// program is constructed last, so the closures read it indirectly.
	var program *tea.Program

	dispatcher := dispatch.New(dispatch.Config{
		Tracker:    tracker,
		Projection: projection,
		Machine:    machine,
		Journal:    entries,
		Catchup:    journal.NewCatchupPolicy(cfg.CatchupWindow),
		Publisher:  router,
		Logger:     logger,
		OnChange: func() {
			if program != nil {
				program.Send(ui.StateChangedMsg{})
			}
		},
	})

	streamClient := stream.NewClient(stream.ClientConfig{
		ServerURL:    cfg.ServerURL,
		SessionToken: token,
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
		Logger:       logger,
		OnStatus: func(status stream.Status) {
			if program != nil {
				program.Send(ui.StreamStatusMsg{Status: status})
			}
		},
	}, tracker, dispatcher)

	model := ui.NewModel(ui.Deps{
		Machine:    machine,
		Projection: projection,
		Journal:    entries,
		Tracker:    tracker,
		Stream:     streamClient,
		Control:    controlClient,
		Logger:     logger,
	})

	program = tea.NewProgram(model, tea.WithAltScreen())

	if err := streamClient.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer streamClient.Stop()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}

func buildRouter(cfg config.Config, token string, logger *log.Logger) (*logging.Router, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Fields = map[string]any{"session_id": token}
	if len(cfg.LogSinks) > 0 {
		logCfg.EnabledSinks = cfg.LogSinks
	} else {
		// Stdout hosts the console UI, so nothing is enabled by default;
		// the json sink is the usual opt-in.
		logCfg.EnabledSinks = nil
	}
	logCfg.JSON.FilePath = cfg.LogFile

	var named []logging.NamedSink
	for _, name := range logCfg.EnabledSinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewConsoleSink(os.Stderr)})
		case "json":
			if logCfg.JSON.FilePath == "" {
				return nil, fmt.Errorf("json sink enabled but no log file configured")
			}
			if dir := filepath.Dir(logCfg.JSON.FilePath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create log directory: %w", err)
				}
			}
			file, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewJSON(file, logCfg.JSON.FlushInterval)})
		case "memory":
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewMemorySink()})
		default:
			logger.Printf("unknown log sink %q ignored", name)
		}
	}

	return logging.NewRouter(nil, logCfg, named), nil
}
