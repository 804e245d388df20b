package services

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/tbourn/go-roast-backend/internal/completion"
	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/fetch"
	"github.com/tbourn/go-roast-backend/internal/urlguard"
)

func TestRoast_Generate_Standard_PersistsParsedResult(t *testing.T) {
	st := newTestStore(t)
	f := &stubFetcher{body: minimalHTML}
	c := &stubCompleter{reply: `{"roast":"r","advice":["t1","t2","t3"]}`}
	svc := NewRoastService(f, c, st, 0)

	out, err := svc.Generate(context.Background(), "  https://example.com  ", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	svc.Wait()

	if out.Degraded {
		t.Fatalf("expected parsed outcome")
	}
	if out.Result.Roast != "r" || !reflect.DeepEqual(out.Result.Advice, []string{"t1", "t2", "t3"}) {
		t.Fatalf("unexpected result: %+v", out.Result)
	}
	if f.urls[0] != "https://example.com" {
		t.Fatalf("expected trimmed URL to be fetched, got %q", f.urls[0])
	}

	// Standard parameters reach the completer.
	req := c.reqs[0]
	if req.MaxTokens != 512 || req.Temperature != 0.7 {
		t.Fatalf("standard params wrong: %+v", req)
	}
	if !strings.Contains(req.Prompt, "Title: Example") || !strings.Contains(req.Prompt, "H1: Hello") {
		t.Fatalf("prompt missing metadata:\n%s", req.Prompt)
	}

	stats, err := st.Stats(context.Background())
	if err != nil || stats.Roasts != 1 {
		t.Fatalf("expected one roast row, got %+v err=%v", stats, err)
	}
}

func TestRoast_Generate_UpgradedParameters(t *testing.T) {
	c := &stubCompleter{reply: `{"roast":"r","jokes":["a","b","c","d"],"advice":["1","2","3","4"]}`}
	svc := NewRoastService(&stubFetcher{body: minimalHTML}, c, nil, 0)

	out, err := svc.Generate(context.Background(), "https://example.com", true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !out.Upgrade || len(out.Result.Jokes) != 4 {
		t.Fatalf("unexpected upgraded outcome: %+v", out)
	}
	if req := c.reqs[0]; req.MaxTokens != 1000 || req.Temperature != 0.9 {
		t.Fatalf("upgraded params wrong: %+v", req)
	}
}

func TestRoast_Generate_InvalidAndBlockedNeverFetch(t *testing.T) {
	f := &stubFetcher{body: minimalHTML}
	c := &stubCompleter{}
	svc := NewRoastService(f, c, nil, 0)

	cases := map[string]error{
		"":                   urlguard.ErrMissingURL,
		"not a url":          urlguard.ErrInvalidURL,
		"http://127.0.0.1":   urlguard.ErrBlockedTarget,
		"http://10.1.2.3":    urlguard.ErrBlockedTarget,
		"http://localhost:8": urlguard.ErrBlockedTarget,
	}
	for in, want := range cases {
		if _, err := svc.Generate(context.Background(), in, false); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", in, want, err)
		}
	}
	if f.calls != 0 || c.calls() != 0 {
		t.Fatalf("no outbound calls expected, fetch=%d complete=%d", f.calls, c.calls())
	}
}

func TestRoast_Generate_FetchFailureSkipsCompletion(t *testing.T) {
	f := &stubFetcher{err: &fetch.Error{StatusCode: http.StatusNotFound, Message: "ghosted"}}
	c := &stubCompleter{}
	svc := NewRoastService(f, c, nil, 0)

	_, err := svc.Generate(context.Background(), "https://example.com", false)
	var fe *fetch.Error
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected *fetch.Error 404, got %v", err)
	}
	if c.calls() != 0 {
		t.Fatalf("completion must not be called after a failed fetch")
	}
}

func TestRoast_Generate_UpstreamFailure(t *testing.T) {
	upstream := &completion.UpstreamError{Model: "m", Err: errors.New("boom")}
	st := &failingStore{}
	svc := NewRoastService(&stubFetcher{body: minimalHTML}, &stubCompleter{err: upstream}, st, 0)

	_, err := svc.Generate(context.Background(), "https://example.com", false)
	var ue *completion.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	svc.Wait()
	if st.attempts() != 0 {
		t.Fatalf("nothing should be persisted on upstream failure")
	}
}

func TestRoast_Generate_DegradedNotPersisted(t *testing.T) {
	st := &failingStore{}
	raw := "no json here, just vibes"
	svc := NewRoastService(&stubFetcher{body: minimalHTML}, &stubCompleter{reply: raw}, st, 0)

	out, err := svc.Generate(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	svc.Wait()
	if !out.Degraded || out.Result.Roast != raw || out.Raw != raw {
		t.Fatalf("unexpected degraded outcome: %+v", out)
	}
	if st.attempts() != 0 {
		t.Fatalf("degraded replies must not be persisted")
	}
}

func TestRoast_Generate_StoreFailureDoesNotAlterResult(t *testing.T) {
	st := &failingStore{}
	c := &stubCompleter{reply: `{"roast":"r","advice":["t1","t2","t3"]}`}
	svc := NewRoastService(&stubFetcher{body: minimalHTML}, c, st, 0)

	out, err := svc.Generate(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("store failure leaked into result: %v", err)
	}
	svc.Wait()
	if st.attempts() != 1 {
		t.Fatalf("expected one insert attempt, got %d", st.attempts())
	}
	want := domain.RoastResult{Roast: "r", Advice: []string{"t1", "t2", "t3"}, Jokes: []string{}}
	if !reflect.DeepEqual(out.Result, want) {
		t.Fatalf("result altered: %+v", out.Result)
	}
}

func TestRoast_Persist_SurvivesRequestCancellation(t *testing.T) {
	st := newTestStore(t)
	c := &stubCompleter{reply: `{"roast":"r","advice":[]}`}
	svc := NewRoastService(&stubFetcher{body: minimalHTML}, c, st, 0)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := svc.Generate(ctx, "https://example.com", false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cancel() // request finished; the write must still complete
	svc.Wait()

	stats, _ := st.Stats(context.Background())
	if stats.Roasts != 1 {
		t.Fatalf("expected roast persisted after cancellation, got %+v", stats)
	}
}
