// Package reply turns raw model output into a RoastResult.
package reply

import (
	"encoding/json"
	"regexp"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// objectRE greedily spans from the first '{' to the last '}' so prose the
// model wraps around its JSON is ignored.
var objectRE = regexp.MustCompile(`(?s)\{.*\}`)

// Warning is returned to clients when the reply could not be decoded.
const Warning = "AI response was not valid JSON, returned raw text instead."

// payload mirrors the JSON the prompts ask for. A wrong field type fails the
// decode.
type payload struct {
	Roast  string   `json:"roast"`
	Jokes  []string `json:"jokes"`
	Advice []string `json:"advice"`
}

// Parse extracts the roast object from raw.
//
// ok is false when raw contains no {...} span or the span is not valid JSON;
// the result then carries raw as its Roast and nothing else. On success
// Advice and Jokes are never nil, and an empty roast falls back to raw.
func Parse(raw string) (domain.RoastResult, bool) {
	match := objectRE.FindString(raw)
	if match == "" {
		return degraded(raw), false
	}

	var p payload
	if err := json.Unmarshal([]byte(match), &p); err != nil {
		return degraded(raw), false
	}

	res := domain.RoastResult{
		Roast:  p.Roast,
		Jokes:  p.Jokes,
		Advice: p.Advice,
	}
	if res.Roast == "" {
		res.Roast = raw
	}
	if res.Advice == nil {
		res.Advice = []string{}
	}
	if res.Jokes == nil {
		res.Jokes = []string{}
	}
	return res, true
}

func degraded(raw string) domain.RoastResult {
	return domain.RoastResult{Roast: raw}
}
