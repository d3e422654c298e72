package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/render"
)

func showCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "show <lecture> <section> [subsection]",
		Short: "Print the content and AI prompt of a section or subsection",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			_, doc, err := loadLecture(cfg, args[0])
			if err != nil {
				return err
			}
			var subsection string
			if len(args) == 3 {
				subsection = args[2]
			}
			node, err := findNode(doc, args[1], subsection)
			if err != nil {
				return err
			}

			if width <= 0 {
				width = terminalWidth()
			}
			fmt.Print(render.Node(node, width))
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = terminal width)")

	return cmd
}
