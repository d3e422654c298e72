package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-study-companion/internal/config"
	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify lecture dir, parse lectures, DB, FTS5 and API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			if cfg.Path != "" {
				fmt.Printf("  File: %s\n", cfg.Path)
			} else {
				fmt.Println("  File: (none, using defaults)")
			}
			fmt.Printf("  Model: %s @ %s\n", cfg.Model, cfg.BaseURL)
			if err := cfg.Validate(); err != nil {
				fmt.Printf("  API key: MISSING (%v)\n", err)
			} else {
				fmt.Println("  API key: set")
			}

			fmt.Println("\n=== Lectures ===")
			checkDir("Lecture dir", cfg.LectureDir)
			lectures, err := scan.ScanLectures(cfg.LectureDir)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  Lecture files: %d\n", len(lectures))
				loaded, err := scan.LoadAll(cmd.Context(), lectures, cfg.Parser)
				if err != nil {
					return err
				}
				for _, r := range loaded {
					if r.Err != nil {
						fmt.Printf("  %s: ERROR %v\n", r.Lecture.Name, r.Err)
						continue
					}
					status := "OK"
					if len(r.Doc.Warnings) > 0 {
						status = fmt.Sprintf("%d warning(s)", len(r.Doc.Warnings))
					}
					fmt.Printf("  %s: %d sections, %d subsections (%s)\n",
						r.Lecture.Name, r.Doc.Len(), r.Doc.SubsectionCount(), status)
					for _, w := range r.Doc.Warnings {
						fmt.Printf("    line %d: %s\n", w.Line, w.Text)
					}
				}
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'asc index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			if v, err := db.SchemaVersion(); err == nil {
				fmt.Printf("  Schema:   v%s\n", v)
			}
			counts := []struct {
				label string
				fn    func() (int, error)
			}{
				{"Sessions", db.SessionCount},
				{"Messages", db.MessageCount},
				{"Lectures", db.LectureCount},
				{"Nodes", db.NodeCount},
			}
			values := make(map[string]int, len(counts))
			for _, c := range counts {
				n, err := c.fn()
				if err != nil {
					return fmt.Errorf("count %s: %w", c.label, err)
				}
				values[c.label] = n
				fmt.Printf("  %-9s %d\n", c.label+":", n)
			}

			fmt.Println("\n=== FTS5 ===")
			checkFTS(db, "nodes_fts", values["Nodes"])
			checkFTS(db, "chat_fts", values["Messages"])

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkFTS(db *index.DB, table string, want int) {
	var n int
	if err := db.Raw().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		fmt.Printf("  %s error: %v\n", table, err)
		return
	}
	if n == want {
		fmt.Printf("  %s: %d entries (synced)\n", table, n)
	} else {
		fmt.Printf("  %s: MISMATCH (rows=%d, fts=%d)\n", table, want, n)
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
