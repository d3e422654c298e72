package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/open"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <lecture> [section] [subsection]",
		Short: "Open the lecture file in $EDITOR at a section heading",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lectures, err := scan.ScanLectures(cfg.LectureDir)
			if err != nil {
				return err
			}
			l, ok := scan.Find(lectures, args[0])
			if !ok {
				_, _, err := loadLecture(cfg, args[0])
				return err
			}

			var section, subsection string
			if len(args) > 1 {
				section = args[1]
			}
			if len(args) > 2 {
				subsection = args[2]
			}
			return open.OpenNode(l, cfg.Parser, section, subsection)
		},
	}
}
