// Package report writes the sweep's console output: a banner describing the
// window, one status line per processed event and a closing summary.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
)

const (
	bannerDateLayout = "2006-01-02"
	eventDateLayout  = "2006-01-02 15:04:05"

	recurrentTag = "[Recurrent event] - "
)

var (
	deletedColor = lipgloss.Color("#10B981") // Green
	alreadyColor = lipgloss.Color("#F59E0B") // Amber
	failedColor  = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Trash describes where deleted events end up for a given provider.
type Trash struct {
	URL  string
	Note string
}

// GoogleTrash is the Google Calendar bin, purged by Google after 30 days.
var GoogleTrash = Trash{
	URL:  "https://calendar.google.com/calendar/r/trash",
	Note: "Events in trash are automatically deleted after 30 days.",
}

// OutlookTrash is the Outlook "Deleted Items" folder.
var OutlookTrash = Trash{
	URL:  "https://outlook.office.com/mail/deleteditems",
	Note: "Deleted events are kept in Deleted Items until the folder is emptied.",
}

// Reporter renders output to w. Colours and hyperlinks are only emitted when
// w is a capable terminal.
type Reporter struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	trash    Trash

	deletedStyle lipgloss.Style
	alreadyStyle lipgloss.Style
	failedStyle  lipgloss.Style
	mutedStyle   lipgloss.Style
}

// New returns a Reporter writing to w.
func New(w io.Writer, trash Trash) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:            w,
		renderer:     r,
		trash:        trash,
		deletedStyle: r.NewStyle().Foreground(deletedColor),
		alreadyStyle: r.NewStyle().Foreground(alreadyColor),
		failedStyle:  r.NewStyle().Foreground(failedColor),
		mutedStyle:   r.NewStyle().Foreground(mutedColor),
	}
}

// Banner announces the window and whether deletions are real.
func (r *Reporter) Banner(w core.Window, confirmed bool) {
	fmt.Fprintf(r.w, "This will delete all events between %s and %s in your main calendar\n\n",
		w.Min.Format(bannerDateLayout), w.Max.Format(bannerDateLayout))

	if !confirmed {
		fmt.Fprintln(r.w, r.alreadyStyle.Render("*** Simulation mode - No event will be deleted ***"))
		fmt.Fprintln(r.w)
	}
}

// Status prints one line for a processed event:
// {result} - {event_date} - {recurrent_tag}{summary}
func (r *Reporter) Status(status core.DeleteStatus, event core.Event) {
	tag := ""
	if event.IsSeries() {
		tag = recurrentTag
	}
	fmt.Fprintf(r.w, "%s - %s - %s%s\n",
		r.result(status), eventDate(event), tag, strings.TrimSpace(event.Summary))
}

// Error prints a failure reason under the status line it belongs to.
func (r *Reporter) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(r.w, r.mutedStyle.Render(err.Error()))
}

// Summary closes the run with the number of events sent to the trash.
func (r *Reporter) Summary(trashed, alreadyDeleted, failed int, confirmed bool) {
	noun, verb := "events", "have been"
	if trashed == 1 {
		noun, verb = "event", "has been"
	}
	if !confirmed {
		verb = "would have been"
	}
	fmt.Fprintf(r.w, "\n%d %s %s moved to the trash.", trashed, noun, verb)
	if alreadyDeleted > 0 || failed > 0 {
		fmt.Fprintf(r.w, " (%d already deleted, %d failed)", alreadyDeleted, failed)
	}

	if r.trash.URL == "" {
		fmt.Fprintln(r.w)
		return
	}
	fmt.Fprintf(r.w, " Don't forget to empty it:\n%s\n", r.link(r.trash.URL))
	if r.trash.Note != "" {
		fmt.Fprintln(r.w, r.trash.Note)
	}
}

func (r *Reporter) result(status core.DeleteStatus) string {
	switch status {
	case core.StatusDeleted:
		return r.deletedStyle.Render(status.String())
	case core.StatusAlreadyDeleted:
		return r.alreadyStyle.Render(status.String())
	default:
		return r.failedStyle.Render(status.String())
	}
}

// link renders url as an OSC 8 hyperlink when the terminal supports escapes.
func (r *Reporter) link(url string) string {
	if r.renderer.ColorProfile() == termenv.Ascii {
		return url
	}
	// OSC 8 with BEL terminator: \033]8;;URL\007TEXT\033]8;;\007
	return fmt.Sprintf("\033]8;;%s\a%s\033]8;;\a", url, url)
}

func eventDate(event core.Event) string {
	start, err := event.Start.Time()
	if err != nil {
		if event.Start.DateTime != "" {
			return event.Start.DateTime
		}
		return event.Start.Date
	}
	return start.Format(eventDateLayout)
}
