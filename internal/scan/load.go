package scan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
)

const loadConcurrency = 4

// Loaded is the parse result of one lecture. Err is set instead of Doc when
// the file could not be read.
type Loaded struct {
	Lecture Lecture
	Doc     *parse.Document
	Err     error
}

// Open parses a single lecture.
func Open(l Lecture, opts parse.Options) (*parse.Document, error) {
	doc, err := parse.New(opts).ParseFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("load lecture %s: %w", l.Name, err)
	}
	return doc, nil
}

// LoadAll parses lectures concurrently. Results keep the order of lectures;
// a per-file failure is recorded in its Loaded and does not stop the others.
// Only cancellation of ctx returns an error.
func LoadAll(ctx context.Context, lectures []Lecture, opts parse.Options) ([]Loaded, error) {
	out := make([]Loaded, len(lectures))
	p := parse.New(opts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, l := range lectures {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := p.ParseFile(l.Path)
			out[i] = Loaded{Lecture: l, Doc: doc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
