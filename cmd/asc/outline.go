package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/render"
)

func outlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outline <lecture>",
		Short: "Print the section tree of a lecture",
		Long:  `Prints sections and subsections in document order. Nodes carrying an AI prompt are marked [AI]; parser warnings are listed at the end.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			_, doc, err := loadLecture(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Print(render.Outline(args[0], doc))
			return nil
		},
	}
}
