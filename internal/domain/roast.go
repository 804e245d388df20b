package domain

// BodyExcerptLimit caps PageSnapshot.BodyExcerpt, in characters (runes).
const BodyExcerptLimit = 3000

// PageSnapshot is the metadata pulled from a fetched page. It only lives long
// enough to build a prompt.
type PageSnapshot struct {
	Title           string
	MetaDescription string
	FirstHeading    string
	BodyExcerpt     string
}

// RoastResult is the structured model output.
//
// Jokes is only populated by the upgraded template; Advice holds 3 (standard)
// or 4 (upgraded) tips. Both are never nil after parsing.
type RoastResult struct {
	Roast  string   `json:"roast"`
	Jokes  []string `json:"jokes"`
	Advice []string `json:"advice"`
}

// Example is a curated, pre-written roast shown on the landing page.
type Example struct {
	URL    string   `json:"url"    yaml:"url"`
	Title  string   `json:"title"  yaml:"title"`
	Roast  string   `json:"roast"  yaml:"roast"`
	Jokes  []string `json:"jokes"  yaml:"jokes"`
	Advice []string `json:"advice" yaml:"advice"`
}
