package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

func TestSnapshot_Basic(t *testing.T) {
	html := `<!doctype html>
<html>
<head>
  <title>  Acme Widgets  </title>
  <meta name="description" content="  Widgets for everyone ">
  <script>var tracking = "ignore me";</script>
  <style>body { color: red }</style>
</head>
<body>
  <h1> Welcome </h1>
  <h1>Second heading</h1>
  <p>Buy   our
     widgets.</p>
  <noscript>Enable JS</noscript>
  <template><p>hidden</p></template>
</body>
</html>`

	got := Snapshot(html)
	assert.Equal(t, "Acme Widgets", got.Title)
	assert.Equal(t, "Widgets for everyone", got.MetaDescription)
	assert.Equal(t, "Welcome", got.FirstHeading)
	assert.Equal(t, "Welcome Second heading Buy our widgets.", got.BodyExcerpt)
}

func TestSnapshot_MissingElements(t *testing.T) {
	got := Snapshot("<html><body></body></html>")
	assert.Equal(t, domain.PageSnapshot{}, got)

	got = Snapshot("")
	assert.Equal(t, domain.PageSnapshot{}, got)
}

func TestSnapshot_OnlyNamedDescription(t *testing.T) {
	html := `<head><meta property="og:description" content="og"><meta name="keywords" content="k"></head>`
	assert.Empty(t, Snapshot(html).MetaDescription)
}

func TestSnapshot_MalformedMarkup(t *testing.T) {
	got := Snapshot(`<title>Broken<h1>Heading<p>text <b>bold`)
	assert.NotEmpty(t, got.Title)
	assert.NotPanics(t, func() { Snapshot("<<<>>>") })
}

func TestSnapshot_TruncatesByRunes(t *testing.T) {
	body := strings.Repeat("é ", 4000) // multi-byte runes
	got := Snapshot("<body>" + body + "</body>")
	assert.Equal(t, domain.BodyExcerptLimit, utf8.RuneCountInString(got.BodyExcerpt))
	assert.True(t, utf8.ValidString(got.BodyExcerpt))
}

func TestSnapshot_NormalizesNFC(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	got := Snapshot("<title>Cafe\u0301</title><body>Cafe\u0301</body>")
	assert.Equal(t, "Caf\u00e9", got.Title)
	assert.Equal(t, "Caf\u00e9", got.BodyExcerpt)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "日本", truncate("日本語", 2))
}
