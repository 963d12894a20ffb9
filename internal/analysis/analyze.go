package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/codexvs/codexvs/internal/attribution"
	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/player"
)

// Result is the attribution outcome for one player in one fight.
type Result struct {
	Player combatlog.Player
	Fight  *combatlog.Fight
	Report attribution.Report
}

// Analyze resolves the fight and player and replays the player's events.
func (s *Service) Analyze(ctx context.Context, code string, fightID int, playerArg string) (*Result, error) {
	_, f, err := s.Fight(ctx, code, fightID)
	if err != nil {
		return nil, err
	}
	p, err := s.ResolvePlayer(ctx, code, f, playerArg)
	if err != nil {
		return nil, err
	}
	return s.AnalyzePlayer(ctx, code, f, p)
}

// AnalyzePlayer derives the initial state of p from its fight-start snapshot
// and replays its merged event stream.
func (s *Service) AnalyzePlayer(ctx context.Context, code string, f *combatlog.Fight, p combatlog.Player) (*Result, error) {
	snap, err := s.api.CombatantInfo(ctx, code, f, p.ID)
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", p.ID, err)
	}
	ps, err := player.New(snap, s.settings.Catalog, s.settings.Player)
	if err != nil {
		return nil, err
	}

	events, err := s.Events(ctx, code, f, p.ID)
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", p.ID, err)
	}

	engine := attribution.NewEngine(s.settings.Engine, s.settings.Catalog)
	if err := engine.Start(p.ID, ps); err != nil {
		return nil, err
	}
	acc, err := engine.Replay(events)
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", p.ID, err)
	}

	return &Result{Player: p, Fight: f, Report: attribution.NewReport(acc, f)}, nil
}

// Outcome is one player's entry of AnalyzeAll. Exactly one of Result, Err
// and Skipped is set.
type Outcome struct {
	Player  combatlog.Player
	Result  *Result
	Err     error
	Skipped string
}

// AnalyzeAll replays every eligible player of a fight on a bounded worker
// pool. Players without the required item are skipped; a failing player
// does not abort the others. Outcomes keep roster order.
func (s *Service) AnalyzeAll(ctx context.Context, code string, fightID int) ([]Outcome, error) {
	_, f, err := s.Fight(ctx, code, fightID)
	if err != nil {
		return nil, err
	}
	players, err := s.api.Players(ctx, code, f)
	if err != nil {
		return nil, err
	}

	var eligible []combatlog.Player
	for _, p := range players {
		if s.eligible(p) {
			eligible = append(eligible, p)
		}
	}
	slog.Info("analyzing players", "fight", f.ID, "eligible", len(eligible), "total", len(players))

	outcomes := make([]Outcome, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Workers)
	for i, p := range eligible {
		i, p := i, p
		g.Go(func() error {
			res, err := s.AnalyzePlayer(gctx, code, f, p)
			outcomes[i] = Outcome{Player: p, Result: res}
			switch {
			case err == nil:
			case errors.Is(err, player.ErrMissingRequiredItem):
				outcomes[i].Skipped = "required item not equipped"
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				slog.Warn("player analysis failed", "player", p.ID, "name", p.Name, "err", err)
				outcomes[i].Err = err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Service) eligible(p combatlog.Player) bool {
	if s.settings.RequiredClass != "" && p.Type != s.settings.RequiredClass {
		return false
	}
	if s.settings.RequiredSpec != "" && p.MainSpec() != s.settings.RequiredSpec {
		return false
	}
	return true
}

// CodexWearers reports which players have the required item equipped at
// fight start. Players whose snapshot cannot be fetched are left out.
func (s *Service) CodexWearers(ctx context.Context, code string, f *combatlog.Fight, players []combatlog.Player) (map[combatlog.ActorID]bool, error) {
	wears := make([]bool, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Workers)
	for i, p := range players {
		i, p := i, p
		g.Go(func() error {
			snap, err := s.api.CombatantInfo(gctx, code, f, p.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Debug("no snapshot for player", "player", p.ID, "err", err)
				return nil
			}
			wears[i] = snap.HasItem(s.settings.Player.RequiredItem)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[combatlog.ActorID]bool, len(players))
	for i, p := range players {
		if wears[i] {
			out[p.ID] = true
		}
	}
	return out, nil
}
