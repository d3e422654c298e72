package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lectures with their section and subsection counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := scan.EnsureDir(cfg.LectureDir); err != nil {
				return err
			}

			lectures, err := scan.ScanLectures(cfg.LectureDir)
			if err != nil {
				return err
			}
			if len(lectures) == 0 {
				fmt.Fprintf(os.Stderr, "No lectures in %s. Add .md or .qmd files there.\n", cfg.LectureDir)
				return nil
			}

			loaded, err := scan.LoadAll(cmd.Context(), lectures, cfg.Parser)
			if err != nil {
				return err
			}

			nameWidth := len("LECTURE")
			for _, l := range lectures {
				nameWidth = max(nameWidth, runewidth.StringWidth(l.Name))
			}
			fmt.Printf("%s  %8s  %11s  %8s\n", runewidth.FillRight("LECTURE", nameWidth), "SECTIONS", "SUBSECTIONS", "WARNINGS")
			for _, r := range loaded {
				name := runewidth.FillRight(r.Lecture.Name, nameWidth)
				if r.Err != nil {
					fmt.Printf("%s  error: %v\n", name, r.Err)
					continue
				}
				fmt.Printf("%s  %8d  %11d  %8d\n", name, r.Doc.Len(), r.Doc.SubsectionCount(), len(r.Doc.Warnings))
			}
			return nil
		},
	}
}
