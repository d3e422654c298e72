package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/search"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeRole(role string) string {
	switch role {
	case "user":
		return sColorBlue + role + sColorReset
	case "assistant":
		return sColorGreen + role + sColorReset
	default:
		return role
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func plainSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	return strings.ReplaceAll(snippet, "<<<", "")
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}

func searchCmd() *cobra.Command {
	var history bool
	var lecture, sessionID, role, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over lecture nodes or chat history",
		Long: `Search indexed lecture nodes (default) or saved chat messages (--history).
Output is TSV:
  nodes:   lecture, section, subsection, line, title, snippet
  history: sessionId, recordId, timestamp, role, lecture, section, subsection, snippet

The first columns stay plain so they can feed 'asc open' or 'asc history --hit'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			// Auto-update index before searching
			if !history {
				if _, err := index.IndexAll(db, cfg.LectureDir, index.Options{Parser: cfg.Parser}); err != nil {
					fmt.Fprintf(os.Stderr, "index: %v\n", err)
				}
			}

			results, err := search.Search(db, search.Options{
				Query:     args[0],
				History:   history,
				Lecture:   lecture,
				SessionID: sessionID,
				Role:      role,
				Since:     since,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			color := stdoutIsTerminal()
			for _, r := range results {
				snippet := tsvField(r.Snippet)
				if color {
					snippet = colorizeSnippet(snippet)
				} else {
					snippet = plainSnippet(snippet)
				}

				if r.Kind == search.KindChat {
					ts, roleOut := r.Timestamp, r.Role
					if color {
						ts = sColorDim + ts + sColorReset
						roleOut = colorizeRole(roleOut)
					}
					fmt.Printf("%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						r.SessionID, r.RecordID, ts, roleOut,
						tsvField(r.Lecture), tsvField(r.Section), tsvField(r.Subsection), snippet)
					continue
				}
				fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
					tsvField(r.Lecture), tsvField(r.Section), tsvField(r.Subsection),
					strconv.Itoa(r.Line), tsvField(r.Title), snippet)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "Search chat history instead of lecture nodes")
	cmd.Flags().StringVar(&lecture, "lecture", "", "Filter by lecture")
	cmd.Flags().StringVar(&sessionID, "session", "", "Filter by session id (history only)")
	cmd.Flags().StringVar(&role, "role", "", "Filter by role: user/assistant (history only)")
	cmd.Flags().StringVar(&since, "since", "", "Messages since date YYYY-MM-DD (history only)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
