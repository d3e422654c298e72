package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-study-companion/internal/chat"
	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/logger"
	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

// loadLecture looks up name in the configured lecture directory and parses it.
func loadLecture(cfg *config.Config, name string) (scan.Lecture, *parse.Document, error) {
	lectures, err := scan.ScanLectures(cfg.LectureDir)
	if err != nil {
		return scan.Lecture{}, nil, err
	}
	l, ok := scan.Find(lectures, name)
	if !ok {
		return scan.Lecture{}, nil, fmt.Errorf("lecture %q not found in %s", name, cfg.LectureDir)
	}
	doc, err := scan.Open(l, cfg.Parser)
	if err != nil {
		return l, nil, err
	}
	return l, doc, nil
}

// findNode resolves a section/subsection pair in doc.
func findNode(doc *parse.Document, section, subsection string) (*parse.ContentNode, error) {
	node, ok := doc.Node(section, subsection)
	if !ok {
		if subsection != "" {
			return nil, fmt.Errorf("subsection %q not found in section %q", subsection, section)
		}
		return nil, fmt.Errorf("section %q not found", section)
	}
	return node, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

func newProvider(cfg *config.Config, log *logger.Logger) (*chat.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return chat.NewClient(chat.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
	}, log)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or 80 when it is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
