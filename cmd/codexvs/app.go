package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/codexvs/codexvs/internal/analysis"
	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/display"
)

// app runs one CLI command against the analysis service.
type app struct {
	svc *analysis.Service
	in  *bufio.Scanner
	out io.Writer
	pr  *display.Printer
}

func newApp(svc *analysis.Service, stdin io.Reader, stdout io.Writer, tag language.Tag) *app {
	return &app{
		svc: svc,
		in:  bufio.NewScanner(stdin),
		out: stdout,
		pr:  display.NewPrinter(stdout, tag, time.Local),
	}
}

func (a *app) dispatch(ctx context.Context, o options) error {
	switch o.action {
	case "fights":
		return a.fights(ctx, o.code)
	case "players":
		return a.players(ctx, o)
	case "events":
		return a.events(ctx, o)
	case "codex":
		if o.all {
			return a.codexAll(ctx, o)
		}
		return a.codex(ctx, o)
	default:
		return fmt.Errorf("unknown command %q", o.action)
	}
}

func (a *app) fights(ctx context.Context, code string) error {
	r, err := a.svc.API().Fights(ctx, code)
	if err != nil {
		return err
	}
	a.pr.Fights(r)
	return nil
}

func (a *app) players(ctx context.Context, o options) error {
	f, err := a.selectFight(ctx, o.code, o.fight)
	if err != nil {
		return err
	}
	return a.listPlayers(ctx, o.code, f, o.codex)
}

func (a *app) listPlayers(ctx context.Context, code string, f *combatlog.Fight, flagCodex bool) error {
	players, err := a.svc.API().Players(ctx, code, f)
	if err != nil {
		return err
	}
	var codex map[combatlog.ActorID]bool
	if flagCodex {
		codex, err = a.svc.CodexWearers(ctx, code, f, players)
		if err != nil {
			return err
		}
	}
	a.pr.Players(players, codex)
	return nil
}

func (a *app) events(ctx context.Context, o options) error {
	f, p, err := a.selectPlayer(ctx, o)
	if err != nil {
		return err
	}
	events, err := a.svc.Events(ctx, o.code, f, p.ID)
	if err != nil {
		return err
	}
	a.pr.EventCount(len(events))
	return nil
}

func (a *app) codex(ctx context.Context, o options) error {
	f, p, err := a.selectPlayer(ctx, o)
	if err != nil {
		return err
	}
	res, err := a.svc.AnalyzePlayer(ctx, o.code, f, p)
	if err != nil {
		return err
	}
	a.pr.Result(res)
	return nil
}

func (a *app) codexAll(ctx context.Context, o options) error {
	f, err := a.selectFight(ctx, o.code, o.fight)
	if err != nil {
		return err
	}
	outcomes, err := a.svc.AnalyzeAll(ctx, o.code, f.ID)
	if err != nil {
		return err
	}
	a.pr.Outcomes(outcomes)
	return nil
}

// selectFight returns the fight with id, prompting for it when id is 0.
func (a *app) selectFight(ctx context.Context, code string, id int) (*combatlog.Fight, error) {
	if id == 0 {
		if err := a.fights(ctx, code); err != nil {
			return nil, err
		}
		answer, err := a.prompt("Select fight: ")
		if err != nil {
			return nil, err
		}
		id, err = strconv.Atoi(answer)
		if err != nil {
			return nil, fmt.Errorf("fight must be an integer, got %q", answer)
		}
	}
	_, f, err := a.svc.Fight(ctx, code, id)
	return f, err
}

// selectPlayer resolves the fight and player, prompting for whichever is missing.
func (a *app) selectPlayer(ctx context.Context, o options) (*combatlog.Fight, combatlog.Player, error) {
	f, err := a.selectFight(ctx, o.code, o.fight)
	if err != nil {
		return nil, combatlog.Player{}, err
	}

	arg := o.player
	if arg == "" {
		if err := a.listPlayers(ctx, o.code, f, false); err != nil {
			return nil, combatlog.Player{}, err
		}
		if arg, err = a.prompt("Select player: "); err != nil {
			return nil, combatlog.Player{}, err
		}
	}

	p, err := a.svc.ResolvePlayer(ctx, o.code, f, arg)
	return f, p, err
}

func (a *app) prompt(question string) (string, error) {
	_, _ = fmt.Fprint(a.out, question)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}
