// Package display renders fights, players and attribution results as text.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/codexvs/codexvs/internal/analysis"
	"github.com/codexvs/codexvs/internal/combatlog"
)

const timeLayout = "2006-01-02 15:04:05"

// Printer writes localized listings to w.
type Printer struct {
	w   io.Writer
	p   *message.Printer
	loc *time.Location
}

// NewPrinter creates a Printer. Numbers are formatted for tag and
// wall-clock times are shown in loc.
func NewPrinter(w io.Writer, tag language.Tag, loc *time.Location) *Printer {
	if loc == nil {
		loc = time.Local
	}
	return &Printer{w: w, p: message.NewPrinter(tag), loc: loc}
}

// ParseLanguage parses a BCP 47 tag, falling back to English.
func ParseLanguage(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil || s == "" {
		return language.English
	}
	return tag
}

// FormatMillis renders a millisecond duration as m:ss.mmm.
func FormatMillis(ms int64) string {
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	return fmt.Sprintf("%s%d:%02d.%03d", sign, ms/60000, ms/1000%60, ms%1000)
}

// Fights lists every fight of a report, one per line:
// "id: [+key ]name m:ss.mmm (YYYY-MM-DD HH:MM:SS)".
func (pr *Printer) Fights(r *combatlog.Report) {
	for i := range r.Fights {
		f := &r.Fights[i]
		_, _ = fmt.Fprintf(pr.w, "%d: %s %s (%s)\n",
			f.ID,
			f.DisplayName(),
			FormatMillis(f.Duration()),
			r.FightStart(f).In(pr.loc).Format(timeLayout))
	}
}

// Players lists a fight roster as "id: ROLE: name-server: class".
// When codex is non-nil, players it marks are flagged.
func (pr *Printer) Players(players []combatlog.Player, codex map[combatlog.ActorID]bool) {
	for _, p := range players {
		line := fmt.Sprintf("%d: %s: %s-%s: %s", p.ID, strings.ToUpper(p.Role), p.Name, p.Server, p.Type)
		if spec := p.MainSpec(); spec != "" {
			line += " (" + spec + ")"
		}
		if codex[p.ID] {
			line += " [codex]"
		}
		_, _ = fmt.Fprintln(pr.w, line)
	}
}

// EventCount reports how many events were read.
func (pr *Printer) EventCount(n int) {
	_, _ = pr.p.Fprintf(pr.w, "Read %d events\n", n)
}

// Result prints the attribution summary of one player.
func (pr *Printer) Result(res *analysis.Result) {
	r := res.Report
	_, _ = pr.p.Fprintf(pr.w,
		"Codex damage: %d\n"+
			"Strength damage: %d\n"+
			"Effective codex damage: %d\n"+
			"Effective codex dps: %.1f\n"+
			"Effective codex dps (combat): %.1f\n"+
			"Strength dps (combat): %.1f\n",
		r.TrackedDamage,
		r.AddedAttributeDamage,
		r.EffectiveDamage,
		r.EffectiveDPS,
		r.EffectiveCombatDPS,
		r.AddedAttributeDPS)
}

// Outcomes prints one line per player of a batch analysis.
func (pr *Printer) Outcomes(outcomes []analysis.Outcome) {
	for _, o := range outcomes {
		name := o.Player.Name + "-" + o.Player.Server
		switch {
		case o.Err != nil:
			_, _ = pr.p.Fprintf(pr.w, "%d: %s: error: %v\n", o.Player.ID, name, o.Err)
		case o.Skipped != "":
			_, _ = pr.p.Fprintf(pr.w, "%d: %s: skipped: %s\n", o.Player.ID, name, o.Skipped)
		default:
			r := o.Result.Report
			_, _ = pr.p.Fprintf(pr.w, "%d: %s: codex %d, strength %d, effective %d (%.1f dps, %.1f combat dps)\n",
				o.Player.ID, name,
				r.TrackedDamage, r.AddedAttributeDamage, r.EffectiveDamage,
				r.EffectiveDPS, r.EffectiveCombatDPS)
		}
	}
}
