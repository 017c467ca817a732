package sinks

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/TARATRAOVO/rhodes-resonance/internal/logging"
)

type ConsoleSink struct {
	logger *log.Logger
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{logger: log.New(w, "", log.LstdFlags)}
}

func (s *ConsoleSink) Write(entry logging.Entry) error {
	if s.logger == nil {
		return nil
	}
	s.logger.Printf("[%s]%s%s severity=%s %s", entry.Kind, formatSeq(entry.Sequence), formatActor(entry.Actor), formatSeverity(entry.Severity), entry.Text)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatSeverity(sev logging.Severity) string {
	switch sev {
	case logging.SeverityDebug:
		return "debug"
	case logging.SeverityInfo:
		return "info"
	case logging.SeverityWarn:
		return "warn"
	case logging.SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func formatSeq(seq uint64) string {
	if seq == 0 {
		return ""
	}
	return fmt.Sprintf(" seq=%d", seq)
}

func formatActor(actor string) string {
	if actor == "" {
		return ""
	}
	return fmt.Sprintf(" actor=%s", actor)
}
