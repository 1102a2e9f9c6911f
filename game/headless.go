package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bartgut/PerlinMapVisualizer/assets"
)

// ErrStalled is returned by RunHeadless when a map failed to load and the
// state machine can never leave Preprocessing.
var ErrStalled = errors.New("stalled in preprocessing")

// RunHeadless drives UpdateHeadless until maxTicks simulation ticks have run,
// or until ctx is done when maxTicks is 0.
//
// While maps are in flight it blocks on the asset server. A failed load
// leaves the game in Preprocessing: with a tick limit the run ends with
// ErrStalled, otherwise it idles one tick period per poll until ctx is done.
func (g *Game) RunHeadless(ctx context.Context, maxTicks int) error {
	slog.Info("starting headless run", "max_ticks", maxTicks)

	stallLogged := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.UpdateHeadless(); err != nil {
			return err
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return nil
		}
		if g.State() != StatePreprocessing {
			continue
		}

		g.WaitAssets()
		loadErr := g.loadError()
		if loadErr == nil {
			continue
		}
		if !stallLogged {
			slog.Error("map load failed, stalled in preprocessing", "error", loadErr)
			stallLogged = true
		}
		if maxTicks > 0 {
			return fmt.Errorf("%w: %w", ErrStalled, loadErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.tickPeriod):
		}
	}
}

// loadError joins the errors of any failed map loads.
func (g *Game) loadError() error {
	var errs []error
	for _, h := range []*assets.Handle{g.plainMap, g.trafficMap} {
		if h == nil {
			continue
		}
		if err := h.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
