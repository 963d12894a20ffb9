package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/codexvs/codexvs/internal/combatlog"
)

// Fight returns the report listing and the fight with the given id.
func (s *Service) Fight(ctx context.Context, code string, fightID int) (*combatlog.Report, *combatlog.Fight, error) {
	report, err := s.api.Fights(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	f, ok := report.FindFight(fightID)
	if !ok {
		return report, nil, fmt.Errorf("%w: %d in %s", ErrFightNotFound, fightID, code)
	}
	return report, f, nil
}

// ResolvePlayer turns a numeric id, "Name" or "Name-Server" into a player
// of the fight. When several players match a name the last one wins.
// A numeric id not present in the roster is returned as a bare id.
func (s *Service) ResolvePlayer(ctx context.Context, code string, f *combatlog.Fight, arg string) (combatlog.Player, error) {
	players, err := s.api.Players(ctx, code, f)
	if err != nil {
		return combatlog.Player{}, err
	}

	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		for _, p := range players {
			if p.ID == combatlog.ActorID(id) {
				return p, nil
			}
		}
		slog.Warn("player id not in fight roster", "player", id, "fight", f.ID)
		return combatlog.Player{ID: combatlog.ActorID(id)}, nil
	}

	name, server, hasServer := strings.Cut(arg, "-")

	var (
		found combatlog.Player
		ok    bool
	)
	for _, p := range players {
		if hasServer && p.Server != server {
			continue
		}
		if p.Name != name {
			continue
		}
		if ok {
			slog.Warn("duplicate player name",
				"player", arg,
				"previous", found.ID,
				"duplicate", p.ID)
		}
		found, ok = p, true
	}
	if !ok {
		return combatlog.Player{}, fmt.Errorf("%w: %q in fight %d", ErrPlayerNotFound, arg, f.ID)
	}
	slog.Debug("resolved player", "player", arg, "id", found.ID)
	return found, nil
}
