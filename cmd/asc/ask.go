package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/chat"
	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorCyan  = "\033[36m"
	colorDim   = "\033[2m"
)

func askCmd() *cobra.Command {
	var question, sessionID string
	var noStream, noFollowUps bool

	cmd := &cobra.Command{
		Use:   "ask <lecture> <section> [subsection]",
		Short: "Ask the AI tutor about a section or subsection",
		Long: `Sends the node's AI prompt (or its content when it has none, or --question)
to the chat provider and streams the answer to stdout. Both turns are saved
under the session, and three follow-up questions are printed afterwards.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lecture, section := args[0], args[1]
			var subsection string
			if len(args) == 3 {
				subsection = args[2]
			}
			_, doc, err := loadLecture(cfg, lecture)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			client, err := newProvider(cfg, log)
			if err != nil {
				return err
			}
			var provider study.Provider = client
			if noStream {
				provider = chat.Blocking{Client: client}
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sess := study.New(sessionID, lecture, doc, provider, db, log)
			if _, err := sess.Open(section, subsection); err != nil {
				return err
			}
			text := question
			if text == "" {
				text = sess.InitialPrompt()
			}

			color := stdoutIsTerminal()
			paint := func(code, s string) string {
				if !color {
					return s
				}
				return code + s + colorReset
			}

			fmt.Println(paint(colorBold, "Q: ") + text)
			fmt.Println()
			_, err = sess.Ask(cmd.Context(), text, func(delta string) {
				fmt.Print(delta)
			})
			fmt.Println()
			if err != nil {
				return err
			}

			if !noFollowUps {
				fmt.Println()
				fmt.Println(paint(colorBold, "追加提问:"))
				for i, q := range sess.FollowUps(cmd.Context()) {
					fmt.Printf("  %s %s\n", paint(colorCyan, fmt.Sprintf("%d.", i+1)), q)
				}
			}
			fmt.Fprintln(os.Stderr, paint(colorDim, "session: "+sess.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "Ask this instead of the node's prompt")
	cmd.Flags().StringVar(&sessionID, "session", "", "Continue a session id (default: start a new one)")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the whole answer instead of streaming")
	cmd.Flags().BoolVar(&noFollowUps, "no-followups", false, "Skip the follow-up questions")

	return cmd
}
