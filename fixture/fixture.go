// Package fixture runs batches of independent CMAC test vectors
// concurrently. Each vector is a pure host-side crypto/cmac.Engine.Sign
// call against its own key and buffer — no simulator state is shared —
// so running the batch under golang.org/x/sync/errgroup is safe even
// though the core itself is single-threaded (spec.md §5).
package fixture

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tagsim/st7xiss/crypto/cmac"
)

// Vector is one CMAC test case: a key, a parameter mode, an input
// buffer, and the expected 16-byte tag. All 16 bytes of Expect are
// compared; there is no partial (e.g. 4-byte packet-MAC) comparison.
type Vector struct {
	Name   string
	Key    [16]byte
	Param  int
	Input  []byte
	Length int
	Prev   [16]byte
	Expect [16]byte
}

// Result is one vector's outcome.
type Result struct {
	Name string
	Got  [16]byte
	Pass bool
	Err  error
}

// Run verifies every vector concurrently and returns one Result per
// vector, in input order. A per-vector error does not abort the batch;
// it is reported as that vector's Result.Err with Pass=false.
func Run(ctx context.Context, vectors []Vector) ([]Result, error) {
	results := make([]Result, len(vectors))
	g, _ := errgroup.WithContext(ctx)
	for i, v := range vectors {
		i, v := i, v
		g.Go(func() error {
			results[i] = verify(v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return results, nil
}

func verify(v Vector) Result {
	engine, err := cmac.New(v.Key)
	if err != nil {
		return Result{Name: v.Name, Err: err}
	}
	got, err := engine.Sign(v.Param, v.Input, v.Length, v.Prev)
	if err != nil {
		return Result{Name: v.Name, Err: err}
	}
	return Result{Name: v.Name, Got: got, Pass: got == v.Expect}
}

// Summary reports how many of a batch passed.
func Summary(results []Result) (passed, failed int) {
	for _, r := range results {
		if r.Err == nil && r.Pass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
