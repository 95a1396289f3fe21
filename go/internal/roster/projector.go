package roster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mcdev12/racedash/go/internal/models"
)

// Mode selects which affordances a projection carries.
type Mode string

const (
	ModeViewer Mode = "viewer"
	ModeAdmin  Mode = "admin"
)

const (
	// Placeholder is rendered in place of an empty roster.
	Placeholder = "No drivers yet"
	// UnnamedDriver stands in for a record without a name.
	UnnamedDriver = "Unnamed"
)

// ParseMode converts a string to a Mode, defaulting to viewer.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeAdmin {
		return ModeAdmin
	}
	return ModeViewer
}

// Row is one projected driver.
type Row struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	Car       string `json:"car"`
	CreatedAt int64  `json:"createdAt"`
}

// Project orders drivers by ascending id. Ids are time-ordered keys, so
// this is roughly insertion order without relying on createdAt.
func Project(drivers models.Drivers) []Row {
	ids := drivers.IDs()
	sort.Strings(ids)

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		d := drivers[id]
		name := d.Name
		if name == "" {
			name = UnnamedDriver
		}
		rows = append(rows, Row{
			ID:        id,
			Name:      name,
			Team:      d.Team,
			Car:       d.Car,
			CreatedAt: d.CreatedAt,
		})
	}
	return rows
}

// Projector renders the roster for one kind of surface.
type Projector struct {
	mode Mode
}

// NewProjector creates a projector for mode.
func NewProjector(mode Mode) *Projector {
	return &Projector{mode: mode}
}

// Mode returns the projector's mode.
func (p *Projector) Mode() Mode {
	return p.mode
}

// RenderHTML renders the roster as an HTML fragment. Every user supplied
// string is escaped; the delete button is only emitted in admin mode.
func (p *Projector) RenderHTML(drivers models.Drivers) string {
	rows := Project(drivers)
	if len(rows) == 0 {
		return `<div class="small">` + Placeholder + `</div>`
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(`<div class="driver"><div class="meta"><div>`)
		fmt.Fprintf(&b, `<div class="name">%s</div>`, EscapeHTML(row.Name))
		fmt.Fprintf(&b, `<div class="small">%s • %s</div>`, EscapeHTML(row.Team), EscapeHTML(row.Car))
		b.WriteString(`</div></div><div class="right">`)
		if p.mode == ModeAdmin {
			fmt.Fprintf(&b, `<button class="btn secondary" data-id="%s" data-action="del">Delete</button>`, EscapeHTML(row.ID))
		}
		b.WriteString(`</div></div>`)
	}
	return b.String()
}

// RenderText renders one line per driver for terminal surfaces.
func (p *Projector) RenderText(drivers models.Drivers) []string {
	rows := Project(drivers)
	if len(rows) == 0 {
		return []string{Placeholder}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		line := fmt.Sprintf("%s  %s • %s", row.Name, row.Team, row.Car)
		if p.mode == ModeAdmin {
			line = fmt.Sprintf("%s  [%s]", line, row.ID)
		}
		lines = append(lines, line)
	}
	return lines
}
