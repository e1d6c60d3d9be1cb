package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/service"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	notSetMarker = subtleStyle.Render("(not set)")
)

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

// renderMailConfig prints cfg with the password hidden.
func renderMailConfig(w io.Writer, cfg *config.MailConfig) {
	host, port := cfg.ServerHost, strconv.Itoa(cfg.ServerPort)
	if host == "" {
		host = notSetMarker
	}
	if cfg.ServerPort == 0 {
		port = notSetMarker
	}
	password := notSetMarker
	if cfg.HasPassword() {
		password = "********"
	}
	body := strings.Join([]string{
		titleStyle.Render("Mail configuration"),
		field("server", host),
		field("port", port),
		field("from", cfg.FromAddress),
		field("password", password),
	}, "\n")
	fmt.Fprintln(w, panelStyle.Render(body))
}

// renderOutcomes prints one line per dispatched action.
func renderOutcomes(w io.Writer, alertName string, outcomes []service.DispatchOutcome) {
	lines := []string{titleStyle.Render("Alert " + alertName)}
	for i, o := range outcomes {
		status := okStyle.Render("sent")
		if !o.Sent {
			status = errorStyle.Render("failed") + " " + o.Error
		}
		lines = append(lines, field(fmt.Sprintf("#%d %s", i+1, o.Kind), status))
	}
	fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
}

// renderLog prints the notification log newest first.
func renderLog(w io.Writer, entries []storage.NotificationLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("no notifications recorded"))
		return
	}
	for _, e := range entries {
		status := okStyle.Render(e.Status)
		if e.Status != storage.StatusSent {
			status = errorStyle.Render(e.Status)
		}
		line := fmt.Sprintf("%s  %-8s %-20s %d recipient(s)  %s",
			subtleStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			status, e.AlertName, e.Recipients, e.Subject)
		if e.ErrorMsg != "" {
			line += "\n" + subtleStyle.Render("    "+e.ErrorMsg)
		}
		fmt.Fprintln(w, line)
	}
}
