package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/logger"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
	"github.com/Zuo-Peng/ai-study-companion/internal/tui"
)

func studyCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "study [lecture]",
		Short: "Study a lecture interactively with the AI tutor",
		Long: `Opens a two-panel TUI: the lecture's sections and subsections on the left,
the selected node and its conversation on the right. Without a lecture argument
the first lecture in the lecture directory is opened.

Keys: enter ask, tab switch focus, 1/2/3 pick a follow-up question,
ctrl+r refresh questions, ctrl+y copy the last answer, ctrl+l learning history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := scan.EnsureDir(cfg.LectureDir); err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			} else {
				lectures, err := scan.ScanLectures(cfg.LectureDir)
				if err != nil {
					return err
				}
				if len(lectures) == 0 {
					return fmt.Errorf("no lectures in %s", cfg.LectureDir)
				}
				name = lectures[0].Name
			}
			_, doc, err := loadLecture(cfg, name)
			if err != nil {
				return err
			}
			if doc.Len() == 0 {
				return fmt.Errorf("lecture %q has no sections", name)
			}

			// the alt screen owns stderr, so only log to a file
			log := logger.Nop()
			if cfg.LogFile != "" {
				if log, err = newLogger(cfg); err != nil {
					return err
				}
				defer log.Sync()
			}

			client, err := newProvider(cfg, log)
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sess := study.New(sessionID, name, doc, client, db, log)
			log.Info("study session started", "session", sess.ID, "lecture", name)
			return tui.Run(cmd.Context(), sess)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Resume a session id (default: start a new one)")

	return cmd
}
