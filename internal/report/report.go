// Package report renders the self-contained HTML management report.
package report

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/denissonlm/AcoCameras/internal/stats"
)

const templateName = "report.html"

type Renderer struct {
	tmpl      *template.Template
	signature string
}

// New parses the report template from templateFS. An empty signature keeps
// the one computed with the stats.
func New(templateFS fs.FS, signature string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"orNone": func(v any) string {
			s := fmt.Sprint(v)
			if s == "" {
				return "Nenhuma"
			}
			return s
		},
		"notes": func(p *string) string {
			if p == nil || *p == "" {
				return "Nenhuma"
			}
			return *p
		},
	}
	tmpl, err := template.New(templateName).Funcs(funcMap).ParseFS(templateFS, templateName)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Renderer{tmpl: tmpl, signature: signature}, nil
}

// Input is what one report is built from. A nil Conclusion keeps the
// default computed with the stats; an empty one drops the section.
type Input struct {
	Stats       stats.Stats
	Conclusion  *string
	GeneratedAt time.Time
}

type page struct {
	Date     string
	Time     string
	Totals   stats.Totals
	Devices  stats.DeviceStats
	Summary  template.HTML
	Problems []stats.ProblemChannel
}

func (r *Renderer) Render(w io.Writer, in Input) error {
	parts := in.Stats.Summary
	if r.signature != "" {
		parts.Signature = r.signature
	}
	conclusion := parts.Conclusion
	if in.Conclusion != nil {
		conclusion = *in.Conclusion
	}

	p := page{
		Date:     in.GeneratedAt.Format("02/01/2006"),
		Time:     in.GeneratedAt.Format("15:04:05"),
		Totals:   in.Stats.Totals,
		Devices:  in.Stats.DeviceStats,
		Summary:  FormatSummary(ComposeSummary(parts, conclusion)),
		Problems: in.Stats.ProblemChannels,
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, p); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Filename is the download name of a report generated at t.
func Filename(t time.Time) string {
	return "Relatorio_Acotubo_Cameras_" + t.Format("2006-01-02") + ".html"
}

// ComposeSummary joins the summary parts into markdown-lite text, one part
// per line. Empty parts are skipped and the conclusion title only appears
// with a conclusion.
func ComposeSummary(parts stats.SummaryParts, conclusion string) string {
	lines := []string{parts.Title, parts.Greeting, parts.Intro, parts.OverviewTitle}
	lines = append(lines, parts.OverviewItems...)
	lines = append(lines, parts.ProblemIntro, parts.IncidentDetailsTitle)
	lines = append(lines, parts.IncidentDetails...)
	if conclusion != "" {
		lines = append(lines, parts.ConclusionTitle, conclusion)
	}
	lines = append(lines, parts.Signature)

	kept := lines[:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

var (
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emRe        = regexp.MustCompile(`\*(.*?)\*`)
	highlightRe = regexp.MustCompile(`##(.*?)##`)
	listRe      = regexp.MustCompile(`(?m)^- (.*(?:\n- .*)*)`)
)

// FormatSummary converts markdown-lite to HTML. The text is escaped first so
// only the produced tags are markup.
func FormatSummary(markdown string) template.HTML {
	s := html.EscapeString(markdown)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = emRe.ReplaceAllString(s, "<em>$1</em>")
	s = highlightRe.ReplaceAllString(s, `<strong style="color: #dc3545;">$1</strong>`)
	s = listRe.ReplaceAllStringFunc(s, func(block string) string {
		var b strings.Builder
		b.WriteString("<ul>")
		for _, item := range strings.Split(block, "\n") {
			b.WriteString("<li>")
			b.WriteString(strings.TrimSpace(strings.TrimPrefix(item, "- ")))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
		return b.String()
	})
	s = strings.ReplaceAll(s, "\n", "<br />")
	return template.HTML(s)
}
