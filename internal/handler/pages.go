package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"honeydash/internal/models"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func page(title string, body ...gomponents.Node) gomponents.Node {
	return html.Doctype(html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | honeydash")),
			html.Link(html.Rel("stylesheet"), html.Href("/public/style.css")),
		),
		html.Body(
			html.Header(
				html.Class("topbar"),
				html.A(html.Href("/"), html.Strong(gomponents.Text("honeydash"))),
				html.Span(html.Class("muted"), gomponents.Text("Cowrie honeypot activity")),
			),
			html.Main(gomponents.Group(body)),
		),
	))
}

func overviewPage(o *models.Overview, hours int) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(o.IPs))
	for i := range o.IPs {
		v := o.IPs[i]
		rows = append(rows, html.Tr(
			html.Td(html.A(html.Href(ipHref(v.IP)), gomponents.Text(v.IP))),
			relativeCell(v.FirstSeenAgo, v.FirstSeen),
			relativeCell(v.LastSeenAgo, v.LastSeen),
			countCell(v.Sessions),
			countCell(v.AuthAttempts),
			countCell(v.Commands),
			countCell(v.Downloads),
		))
	}

	trend := make([]gomponents.Node, 0, len(o.Trend))
	for i := range o.Trend {
		p := o.Trend[i]
		trend = append(trend, html.Tr(
			html.Td(gomponents.Text(formatTime(p.Time))),
			countCell(p.Success),
			countCell(p.Failure),
			countCell(p.Unknown),
		))
	}

	return page("Overview",
		html.Section(
			html.H2(gomponents.Text("Source IPs")),
			table([]string{"IP", "First seen", "Last seen", "Sessions", "Auth attempts", "Commands", "Downloads"}, rows, "No sessions recorded yet."),
		),
		html.Section(
			html.H2(gomponents.Text("Auth attempts per minute, last "+strconv.Itoa(hours)+"h")),
			table([]string{"Minute", "Success", "Failure", "Unknown"}, trend, "No auth attempts in this window."),
		),
	)
}

func ipDetailPage(d *models.IPDetail) gomponents.Node {
	sessions := make([]gomponents.Node, 0, len(d.Sessions))
	for i := range d.Sessions {
		s := d.Sessions[i]
		sessions = append(sessions, html.Tr(
			html.Td(html.Code(gomponents.Text(s.ID))),
			relativeCell(s.Started, &s.StartTime),
			html.Td(gomponents.Text(optional(s.Duration, "open"))),
			html.Td(gomponents.Text(strconv.FormatInt(s.Sensor, 10))),
			html.Td(gomponents.Text(optional(s.TermSize, "-"))),
		))
	}

	attempts := make([]gomponents.Node, 0, len(d.Attempts))
	for i := range d.Attempts {
		a := d.Attempts[i]
		attempts = append(attempts, html.Tr(
			relativeCell(a.When, &a.Timestamp),
			html.Td(html.Code(gomponents.Text(optional(a.Username, "")))),
			html.Td(html.Code(gomponents.Text(optional(a.Password, "")))),
			html.Td(html.Class("outcome-"+a.Outcome.String()), gomponents.Text(a.Outcome.String())),
			html.Td(gomponents.Text(optional(a.Client, "-"))),
		))
	}

	return page(d.IP,
		html.H1(gomponents.Text(d.IP)),
		html.P(html.A(html.Href("/api/ips/"+url.PathEscape(d.IP)+"/auth"), gomponents.Text("JSON"))),
		html.Section(
			html.H2(gomponents.Text("Sessions")),
			table([]string{"Session", "Started", "Duration", "Sensor", "Terminal"}, sessions, "No sessions from this address."),
		),
		html.Section(
			html.H2(gomponents.Text("Auth attempts")),
			table([]string{"When", "Username", "Password", "Outcome", "Client"}, attempts, "No auth attempts from this address."),
		),
	)
}

func errorPage(status int, message string) gomponents.Node {
	return page(http.StatusText(status),
		html.H1(gomponents.Text(strconv.Itoa(status)+" "+http.StatusText(status))),
		html.P(gomponents.Text(message)),
	)
}

func table(headers []string, rows []gomponents.Node, empty string) gomponents.Node {
	if len(rows) == 0 {
		return html.P(html.Class("muted"), gomponents.Text(empty))
	}
	head := make([]gomponents.Node, 0, len(headers))
	for _, h := range headers {
		head = append(head, html.Th(gomponents.Text(h)))
	}
	return html.Table(
		html.THead(html.Tr(gomponents.Group(head))),
		html.TBody(gomponents.Group(rows)),
	)
}

// relativeCell shows the relative string with the absolute time on hover.
func relativeCell(rel string, t *time.Time) gomponents.Node {
	if t == nil {
		return html.Td(gomponents.Text(rel))
	}
	return html.Td(html.Title(t.Format(timeLayout)), gomponents.Text(rel))
}

func countCell(n int64) gomponents.Node {
	return html.Td(html.Class("num"), gomponents.Text(strconv.FormatInt(n, 10)))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

func optional(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func ipHref(ip string) string {
	return "/ip/" + url.PathEscape(ip)
}
