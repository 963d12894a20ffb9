package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/wcl"
)

// replayTypes are the event streams merged into one replay.
var replayTypes = [...]wcl.DataType{wcl.DataDamageDone, wcl.DataBuffs, wcl.DataCasts}

// Events fetches the damage, buff and cast streams of a player concurrently
// and merges them into one timestamp-ordered sequence. Events sharing a
// timestamp keep the stream order damage, buffs, casts.
func (s *Service) Events(ctx context.Context, code string, f *combatlog.Fight, source combatlog.ActorID) ([]combatlog.Event, error) {
	start := time.Now()

	var streams [len(replayTypes)][]combatlog.Event
	g, gctx := errgroup.WithContext(ctx)
	for i, dt := range replayTypes {
		i, dt := i, dt
		g.Go(func() error {
			raw, err := s.api.Events(gctx, code, f, dt, source)
			if err != nil {
				return err
			}
			events, err := combatlog.DecodeEvents(raw)
			if err != nil {
				return fmt.Errorf("decoding %s events: %w", dt, err)
			}
			streams[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, st := range streams {
		total += len(st)
	}
	merged := make([]combatlog.Event, 0, total)
	for _, st := range streams {
		merged = append(merged, st...)
	}
	combatlog.SortByTimestamp(merged)

	slog.Info("fetched all events",
		"player", source,
		"fight", f.ID,
		"count", len(merged),
		"elapsed", time.Since(start))
	return merged, nil
}
