// Package batch converts the models of a database on several workers.
package batch

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/Faultbox/gravity-convert/internal/convert"
	"github.com/Faultbox/gravity-convert/internal/database"
)

// NewConverter returns a converter with its own scene. It is called once
// per base model, from the worker that converts it.
type NewConverter func() *convert.Converter

// Run converts every base model of db and its variants with at most workers
// conversions in flight. Results are merged in database order, so the
// report matches a serial run over the same inputs. Models not started
// before ctx is cancelled are left out and ctx's error is returned.
func Run(ctx context.Context, db *database.Database, newConverter NewConverter, workers int, log *zap.Logger) (*convert.Report, error) {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	bases := db.Bases()
	perBase := make([][]convert.Result, len(bases))

	var mu sync.Mutex
	var firstErr error
	done := 0

	p := pool.New().WithMaxGoroutines(workers)
	for i, base := range bases {
		p.Go(func() {
			results, err := newConverter().ConvertBase(ctx, base)
			perBase[i] = results

			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			done++
			log.Info("progress", zap.Int("done", done), zap.Int("total", len(bases)), zap.String("model", base.Name))
		})
	}
	p.Wait()

	report := convert.NewReport(db)
	for _, results := range perBase {
		report.Results = append(report.Results, results...)
	}
	return report, firstErr
}
