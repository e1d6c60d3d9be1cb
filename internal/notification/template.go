package notification

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/alert"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/doc"
)

// Report is the rendered subject and plain-text body of one notification.
type Report struct {
	Subject string
	Body    string
}

const (
	pathHitsTotal = "hits.total"
	pathHits      = "hits.hits"
	fieldSource   = "_source"
)

// Render builds the report for a firing alert. The body lists why the alert
// triggered, the hit count, the query and its indices, followed by either one
// line per hit (when the action names a display field) or the whole action
// response.
func Render(product string, act *action.SMTPAction, alertName string, res alert.TriggerResult) Report {
	if product == "" {
		product = config.DefaultProductName
	}

	var b strings.Builder
	b.WriteString("The following query triggered because ")
	b.WriteString(res.TriggerDescription())
	b.WriteString("\n")

	total, _ := doc.Lookup(pathHitsTotal, res.TriggerResponse())
	b.WriteString("The total number of hits returned : ")
	b.WriteString(doc.Text(total))
	b.WriteString("\n")

	req := res.ActionRequest()
	b.WriteString("For query : ")
	b.WriteString(req.String())
	b.WriteString("\n")

	b.WriteString("Indices : ")
	for _, idx := range req.Indices() {
		b.WriteString(idx)
		b.WriteString("/")
	}
	b.WriteString("\n\n")

	if field, ok := act.DisplayField(); ok {
		writeHits(&b, field, res.ActionResponse())
	} else {
		b.WriteString(doc.Text(res.ActionResponse()))
	}

	return Report{
		Subject: product + " Alert " + alertName + " triggered",
		Body:    b.String(),
	}
}

// writeHits appends one line per element of hits.hits: the display field of
// its _source when present, otherwise the whole _source.
func writeHits(b *strings.Builder, field string, response map[string]any) {
	v, _ := doc.Lookup(pathHits, response)
	hits, _ := v.([]any)
	for _, h := range hits {
		hit, _ := h.(map[string]any)
		src := hit[fieldSource]
		if m, ok := src.(map[string]any); ok {
			if val, ok := m[field]; ok {
				b.WriteString(doc.Text(val))
				b.WriteString("\n")
				continue
			}
		}
		b.WriteString(doc.Text(src))
		b.WriteString("\n")
	}
}

// reportTmpl is the HTML alternative sent alongside the plain-text body.
// {{.Subject}} and {{.Body}} are auto-escaped by html/template.
var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:24px;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation">
    <tr>
      <td style="background-color:#7f1d1d;padding:16px 24px;border-radius:8px 8px 0 0;">
        <p style="margin:0;font-size:15px;font-weight:600;color:#ffffff;">{{.Subject}}</p>
      </td>
    </tr>
    <tr>
      <td style="background-color:#ffffff;padding:24px;border-radius:0 0 8px 8px;">
        <pre style="margin:0;font-size:13px;line-height:1.6;color:#111827;
                    white-space:pre-wrap;word-break:break-word;">{{.Body}}</pre>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// buildReportHTML renders the HTML alternative for r.
func buildReportHTML(r Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
