package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/dashgate/pkg/models"
)

const (
	draculaGreen   = "#50FA7B"
	draculaRed     = "#FF5555"
	draculaYellow  = "#F1FA8C"
	draculaPurple  = "#BD93F9"
	draculaComment = "#6272A4"
	draculaCyan    = "#8BE9FD"
)

type styles struct {
	up, down, pending, maintenance, name, muted, event lipgloss.Style
}

func newStyles() styles {
	return styles{
		up:          lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen)).Bold(true),
		down:        lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)).Bold(true),
		pending:     lipgloss.NewStyle().Foreground(lipgloss.Color(draculaYellow)),
		maintenance: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple)),
		name:        lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
		event:       lipgloss.NewStyle().Bold(true),
	}
}

type renderer struct {
	out    io.Writer
	quiet  bool
	styles styles
	names  map[int]string
	status map[int]int
	now    func() time.Time
}

func newRenderer(out io.Writer, quiet bool) *renderer {
	return &renderer{
		out:    out,
		quiet:  quiet,
		styles: newStyles(),
		names:  make(map[int]string),
		status: make(map[int]int),
		now:    time.Now,
	}
}

func (r *renderer) statusLabel(status int) string {
	switch status {
	case models.StatusUp:
		return r.styles.up.Render("UP")
	case models.StatusDown:
		return r.styles.down.Render("DOWN")
	case models.StatusPending:
		return r.styles.pending.Render("PENDING")
	case models.StatusMaintenance:
		return r.styles.maintenance.Render("MAINT")
	default:
		return r.styles.muted.Render(fmt.Sprintf("?%d", status))
	}
}

func (r *renderer) monitorName(id int) string {
	if name, ok := r.names[id]; ok {
		return r.styles.name.Render(name)
	}

	return r.styles.name.Render(fmt.Sprintf("#%d", id))
}

func (r *renderer) line(format string, args ...interface{}) {
	stamp := r.styles.muted.Render(r.now().Format(time.TimeOnly))
	_, _ = fmt.Fprintf(r.out, "%s %s\n", stamp, fmt.Sprintf(format, args...))
}

func (r *renderer) render(f frame) {
	switch f.Event {
	case "monitorList":
		var monitors []models.Monitor
		if err := json.Unmarshal(f.Data, &monitors); err != nil {
			r.line("bad monitorList: %v", err)
			return
		}

		for _, m := range monitors {
			r.names[m.ID] = m.Name
		}

		r.line("%s %d monitors", r.styles.event.Render("monitors"), len(monitors))

		if r.quiet {
			return
		}

		for _, m := range monitors {
			r.line("  %s %s", r.monitorName(m.ID), r.styles.muted.Render(m.Type))
		}

	case "heartbeat":
		var hb models.Heartbeat
		if err := json.Unmarshal(f.Data, &hb); err != nil {
			r.line("bad heartbeat: %v", err)
			return
		}

		prev, seen := r.status[hb.MonitorID]
		r.status[hb.MonitorID] = hb.Status

		if r.quiet && seen && prev == hb.Status {
			return
		}

		r.line("%s %s %.0fms %s", r.statusLabel(hb.Status), r.monitorName(hb.MonitorID), hb.Ping, r.styles.muted.Render(hb.Msg))

	case "uptime":
		if r.quiet {
			return
		}

		var u models.Uptime
		if err := json.Unmarshal(f.Data, &u); err != nil {
			r.line("bad uptime: %v", err)
			return
		}

		r.line("%s %s %.2f%% (%dh)", r.styles.event.Render("uptime"), r.monitorName(u.MonitorID), u.Percent*100, u.Period)

	case "connect":
		r.line("%s", r.styles.up.Render("relay connected"))

	case "disconnect":
		r.line("%s", r.styles.down.Render("relay disconnected"))

	case "error":
		var msg string
		_ = json.Unmarshal(f.Data, &msg)

		r.line("%s %s", r.styles.down.Render("error"), msg)

	default:
		r.line("%s", r.styles.muted.Render("unknown event "+f.Event))
	}
}
