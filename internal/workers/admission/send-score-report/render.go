package sendscorereport

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"unichance/internal/models"
)

const (
	maxSteps     = 3
	maxSMSLength = 160
)

var (
	subjectTmpl = template.Must(template.New("subject").Parse(
		`Your admission chance for {{.Program}}: {{.Score}}/100`))

	textTmpl = template.Must(template.New("text").Parse(`Hello {{.Name}},

Your admission chance score for {{.Program}} is {{.Score}}/100 ({{.Category}}).
{{if .Advice}}
{{.Advice}}
{{end}}{{if .Steps}}
Next steps:
{{range .Steps}}- {{.}}
{{end}}{{end}}`))

	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<p>Hello {{.Name}},</p>
<p>Your admission chance score for <strong>{{.Program}}</strong> is <strong>{{.Score}}/100</strong> ({{.Category}}).</p>
{{if .Advice}}<p>{{.Advice}}</p>
{{end}}{{if .Steps}}<p>Next steps:</p>
<ul>{{range .Steps}}<li>{{.}}</li>{{end}}</ul>
{{end}}`))
)

type reportData struct {
	Name     string
	Program  string
	Score    int
	Category string
	Advice   string
	Steps    []string
}

func newReportData(input *Input, recipient *models.Recipient) reportData {
	name := strings.TrimSpace(recipient.FullName)
	if name == "" {
		name = "there"
	}

	program := input.ProgramTitle
	switch {
	case program != "":
	case input.ProgramID > 0:
		program = fmt.Sprintf("program #%d", input.ProgramID)
	default:
		program = "your selected program"
	}

	steps := input.NextSteps
	if len(steps) > maxSteps {
		steps = steps[:maxSteps]
	}

	return reportData{
		Name:     name,
		Program:  program,
		Score:    input.Score,
		Category: string(input.Category),
		Advice:   input.Advice,
		Steps:    steps,
	}
}

func render(input *Input, recipient *models.Recipient) (*message, error) {
	data := newReportData(input, recipient)

	var subject, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &message{
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
		SMS:     smsText(data),
	}, nil
}

func smsText(d reportData) string {
	sms := fmt.Sprintf("%s: %d/100 (%s).", d.Program, d.Score, d.Category)
	if len(d.Steps) > 0 {
		sms += " Next: " + d.Steps[0]
	}
	if r := []rune(sms); len(r) > maxSMSLength {
		sms = string(r[:maxSMSLength-3]) + "..."
	}
	return sms
}
