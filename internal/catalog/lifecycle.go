package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collections is the settled result of one fetch lifecycle. Current and
// Archive are never nil.
type Collections struct {
	Current []Product
	Archive []Product
	// Err is the network or decode failure that emptied both lists, if any.
	Err error
	// Sample is set when Current holds the built-in sample drop.
	Sample bool
}

// Failed reports whether the lifecycle hit a hard failure.
func (c Collections) Failed() bool { return c.Err != nil }

// LoadOptions tune Load.
type LoadOptions struct {
	// Now stamps the sample drop; defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Load requests both collections concurrently and waits for both to settle
// before applying the fallback rules:
//
//   - a shape failure (a JSON body that is not an array, including a JSON
//     error body) on current, or an empty current list, substitutes the
//     sample drop;
//   - a shape failure on archive substitutes an empty list;
//   - a network failure or an undecodable body on either call empties both
//     lists and is reported through Collections.Err.
func Load(ctx context.Context, src Source, opts LoadOptions) Collections {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	metrics := loadMetrics(logger)
	start := time.Now()

	var (
		current, archive []Product
		curErr, arcErr   error
		g                errgroup.Group
	)
	// Plain Group: one failing call must not cancel the other.
	g.Go(func() error {
		current, curErr = src.Current(ctx)
		return curErr
	})
	g.Go(func() error {
		archive, arcErr = src.Archive(ctx)
		return arcErr
	})
	_ = g.Wait()
	metrics.recordDuration(ctx, start)

	if hard := firstHard(curErr, arcErr); hard != nil {
		logger.Warn("catalog fetch failed; showing empty collections", zap.Error(hard))
		metrics.recordFallback(ctx, "current", "network")
		metrics.recordFallback(ctx, "archive", "network")
		return Collections{Current: []Product{}, Archive: []Product{}, Err: hard}
	}

	out := Collections{Current: current, Archive: archive}
	if curErr != nil || len(out.Current) == 0 {
		reason := "empty"
		if curErr != nil {
			reason = "shape"
			logger.Warn("current collection unusable; using sample drop", zap.Error(curErr))
		}
		metrics.recordFallback(ctx, "current", reason)
		out.Current = SampleProducts(now())
		out.Sample = true
	}
	if arcErr != nil {
		logger.Warn("archive collection unusable; using empty list", zap.Error(arcErr))
		metrics.recordFallback(ctx, "archive", "shape")
		out.Archive = nil
	}
	if out.Archive == nil {
		out.Archive = []Product{}
	}
	return out
}

func firstHard(errs ...error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrMalformed) {
			return err
		}
	}
	return nil
}
