// Package prompt renders the instruction text sent to the completion model.
//
// Two templates exist. The standard one asks for a short roast and three
// tips; the upgraded one asks for a longer roast, exactly four jokes and
// exactly four tips. The upgrade flag alone selects the template, the token
// budget and the sampling temperature.
//
// Site metadata is embedded verbatim. A page can therefore steer the model
// through its own title or text; callers must treat the reply as untrusted.
package prompt

import (
	"bytes"
	"text/template"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// Generation parameters per template.
const (
	StandardMaxTokens   = 512
	StandardTemperature = 0.7

	UpgradedMaxTokens   = 1000
	UpgradedTemperature = 0.9
)

// Prompt is a rendered instruction plus the parameters it must be sent with.
type Prompt struct {
	Text        string
	MaxTokens   int
	Temperature float64
}

type siteData struct {
	URL string
	domain.PageSnapshot
}

var standardTmpl = template.Must(template.New("standard").Parse(`
You are a witty web design critic. Roast the website below with humour.

Instructions:
- Keep the roast short, roughly 100 to 180 words.
- Weave in 2 to 4 playful jokes or one-liners about its design, copy or vibe.
- Finish with 3 friendly, genuinely helpful tips for improvement.

Reply with JSON only, shaped exactly like this:
{
  "roast": "text string",
  "advice": ["tip 1", "tip 2", "tip 3"]
}

Website:
URL: {{.URL}}
Title: {{.Title}}
Meta: {{.MetaDescription}}
H1: {{.FirstHeading}}
Text excerpt: {{.BodyExcerpt}}
`))

var upgradedTmpl = template.Must(template.New("upgraded").Parse(`
You are RoastBot, a brutally honest yet helpful web design and UX consultant
with a sharp sense of humour. Roast the website below AND give feedback that
is actually useful.

Objectives:
- Write a humorous roast of roughly 250 to 350 words covering the design,
  content, structure or vibe of the site.
- Be witty and cheeky, never cruel or offensive.
- Add exactly 4 punchy jokes or one-liners, each aimed at a specific flaw
  (clunky UI, dated styling, odd copy and so on).
- Add exactly 4 clear, professional improvement tips in plain English that a
  non-technical owner could act on.

Reply with valid JSON only, shaped exactly like this:
{
  "roast": "A long, witty roast paragraph...",
  "jokes": ["One-liner 1", "One-liner 2", "One-liner 3", "One-liner 4"],
  "advice": ["Tip 1", "Tip 2", "Tip 3", "Tip 4"]
}

Website info:
URL: {{.URL}}
Title: {{.Title}}
Meta: {{.MetaDescription}}
H1: {{.FirstHeading}}
Excerpt: {{.BodyExcerpt}}
`))

// Build renders the prompt for url and snap. upgrade selects the longer
// template together with its larger token budget and higher temperature.
func Build(url string, snap domain.PageSnapshot, upgrade bool) Prompt {
	data := siteData{URL: url, PageSnapshot: snap}
	if upgrade {
		return Prompt{
			Text:        render(upgradedTmpl, data),
			MaxTokens:   UpgradedMaxTokens,
			Temperature: UpgradedTemperature,
		}
	}
	return Prompt{
		Text:        render(standardTmpl, data),
		MaxTokens:   StandardMaxTokens,
		Temperature: StandardTemperature,
	}
}

// render executes t. text/template performs no escaping, so metadata lands in
// the prompt exactly as scraped. Execution over plain string fields cannot
// fail; a writer error from bytes.Buffer is impossible.
func render(t *template.Template, data siteData) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}
