package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	analyzeDomain     string
	analyzeScrolls    int
	analyzeMaxScrolls int
	analyzeTimeOfDay  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze content snippets from files or stdin",
	Long:  "Runs the analysis pipeline over each input without the HTTP layer. Reads stdin when no files are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		var snippets []namedSnippet
		if len(args) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return eris.Wrap(err, "analyze: read stdin")
			}
			snippets = append(snippets, namedSnippet{name: "stdin", content: string(data)})
		} else {
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return eris.Wrap(err, fmt.Sprintf("analyze: read %s", path))
				}
				snippets = append(snippets, namedSnippet{name: path, content: string(data)})
			}
		}

		limit := cfg.Analyze.MaxConcurrent
		if limit <= 0 {
			limit = 4
		}

		g, gCtx := errgroup.WithContext(cmd.Context())
		g.SetLimit(limit)

		var mu sync.Mutex
		results := make(map[string]any, len(snippets))

		for _, s := range snippets {
			g.Go(func() error {
				result, err := p.Analyze(gCtx, analysisPayload(s.content))
				if err != nil {
					zap.L().Warn("analyze: input rejected",
						zap.String("input", s.name),
						zap.Error(err),
					)
					mu.Lock()
					results[s.name] = map[string]string{"error": err.Error()}
					mu.Unlock()
					return nil
				}
				mu.Lock()
				results[s.name] = result
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

type namedSnippet struct {
	name    string
	content string
}

// analysisPayload synthesizes the wire payload the pipeline validates,
// using the CLI flags for behavioral context.
func analysisPayload(content string) map[string]any {
	return map[string]any{
		"content": content,
		"context": map[string]any{
			"scrollCount": analyzeScrolls,
			"maxScrolls":  analyzeMaxScrolls,
			"domain":      analyzeDomain,
			"timestamp":   time.Now().UnixMilli(),
			"timeOfDay":   analyzeTimeOfDay,
			"scrollTime":  0.0,
		},
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDomain, "domain", "cli.local", "domain to attribute the content to")
	analyzeCmd.Flags().IntVar(&analyzeScrolls, "scrolls", 0, "scroll count for the synthetic context")
	analyzeCmd.Flags().IntVar(&analyzeMaxScrolls, "max-scrolls", 100, "scroll allowance for the synthetic context")
	analyzeCmd.Flags().StringVar(&analyzeTimeOfDay, "time-of-day", "unspecified", "time of day label")
	rootCmd.AddCommand(analyzeCmd)
}
