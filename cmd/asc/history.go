package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/render"
)

func historyCmd() *cobra.Command {
	var hitID int64
	var context, width int
	var query string
	var del bool

	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: "List study sessions or show one conversation",
		Long: `Without an argument, lists sessions by last activity as TSV:
  sessionId, createdAt, lastActivity, messages, lectures

With a session id, renders the conversation. --hit centers the output on one
record (as printed by 'asc search --history') and --query highlights keywords.`,
		Args: cobra.MaximumNArgs(1),
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

			if len(args) == 0 {
				sessions, err := db.ListSessions()
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(os.Stderr, "No sessions yet.")
					return nil
				}
				for _, s := range sessions {
					fmt.Printf("%s\t%s\t%s\t%d\t%s\n",
						s.SessionID,
						s.CreatedAt.Local().Format("2006-01-02 15:04"),
						s.LastActivity.Local().Format("2006-01-02 15:04"),
						s.Messages,
						strings.Join(s.Lectures, ","),
					)
				}
				return nil
			}

			if del {
				if err := db.DeleteSession(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Deleted session %s\n", args[0])
				return nil
			}

			if width <= 0 && stdoutIsTerminal() {
				width = terminalWidth()
			}
			out, _, err := render.History(db, args[0], render.Options{
				HitID:   hitID,
				Context: context,
				Width:   width,
				Query:   query,
			})
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&hitID, "hit", 0, "Record id to center on")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after hit to show (-1 = all)")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = terminal width, no wrap when piped)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().BoolVar(&del, "delete", false, "Delete the session and its messages")

	return cmd
}
