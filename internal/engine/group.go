package engine

import (
	"context"
	"sync"
)

// Runner is anything Group can drive. *Loop satisfies it for every command
// type.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Result is one engine's stop result.
type Result struct {
	Engine string
	Err    error
}

// Group runs engines on their own goroutines and collects their results.
// A failing engine never cancels the others.
type Group struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	results []Result
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

// Go starts r. Results are reported in the order Go was called.
func (g *Group) Go(ctx context.Context, r Runner) {
	g.mu.Lock()
	idx := len(g.results)
	g.results = append(g.results, Result{Engine: r.Name()})
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := r.Run(ctx)

		g.mu.Lock()
		g.results[idx].Err = err
		g.mu.Unlock()
	}()
}

// Wait blocks until every engine has stopped and returns their results.
func (g *Group) Wait() []Result {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Result, len(g.results))
	copy(out, g.results)
	return out
}
