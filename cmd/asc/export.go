package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/render"
)

func exportCmd() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "export <lecture>",
		Short: "Render a lecture to HTML or normalized markdown",
		Long: `Renders the parsed lecture (sections, subsections and AI prompts) as a
standalone HTML page, or as markdown with --format markdown. Writes to stdout
unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			_, doc, err := loadLecture(cfg, args[0])
			if err != nil {
				return err
			}

			var out string
			switch format {
			case "html":
				if out, err = render.ExportHTML(args[0], doc); err != nil {
					return err
				}
			case "markdown", "md":
				out = render.Markdown(args[0], doc)
			default:
				return fmt.Errorf("unknown format %q (want html or markdown)", format)
			}

			if output == "" || output == "-" {
				fmt.Print(out)
				return nil
			}
			if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "html", "Output format: html or markdown")

	return cmd
}
