package fetch

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-roast-backend/internal/urlguard"
)

func TestFetch_SuccessSendsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Hi</title></head><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "<title>Hi</title>")
	assert.Equal(t, DefaultUserAgent, gotUA.Load())

	// Same URL again: each call is an independent visit.
	body, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "ok")
}

func TestFetch_CustomUserAgent(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := New(Config{UserAgent: "roast-test/2"}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "roast-test/2", gotUA.Load())
}

func TestFetch_ErrorStatus_FriendlyPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{FriendlyErrors: true, Rand: rand.New(rand.NewSource(7))})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, FriendlyMessages(), fe.Message)
}

func TestFetch_ErrorStatus_Deterministic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{FriendlyErrors: false}).Fetch(context.Background(), srv.URL)
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, "site responded with status 503", fe.Message)
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens any more

	_, err := New(Config{FriendlyErrors: true}).Fetch(context.Background(), url)
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
	assert.True(t, strings.HasPrefix(fe.Message, "Error fetching site: "), fe.Message)
	assert.NotNil(t, errors.Unwrap(fe))
}

func TestFetch_RedirectToBlockedHost(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		_, _ = w.Write([]byte("secret"))
	}))
	defer internal.Close()

	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/admin", http.StatusFound)
	}))
	defer public.Close()

	// Only redirect hops are checked here; the submitted URL was vetted by
	// urlguard.Check before reaching the fetcher.
	_, err := New(Config{}).Fetch(context.Background(), public.URL)

	var fe *Error
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, BlockedMessage, fe.Message)
	assert.ErrorIs(t, err, ErrRedirectBlocked)
	assert.ErrorIs(t, err, urlguard.ErrBlockedTarget)
	assert.Zero(t, internalHits.Load())
}

func TestFetch_RedirectFollowedWhenAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/final" {
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
			return
		}
		_, _ = w.Write([]byte("<html>landed</html>"))
	}))
	defer srv.Close()

	f := New(Config{BlockHost: func(string) bool { return false }})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "landed")
}

func TestRedirectPolicy(t *testing.T) {
	policy := redirectPolicy(urlguard.IsBlockedHost)
	req := func(raw string) *http.Request {
		r, err := http.NewRequest(http.MethodGet, raw, nil)
		require.NoError(t, err)
		return r
	}

	assert.NoError(t, policy(req("https://example.com/next"), nil))
	assert.ErrorIs(t, policy(req("http://127.0.0.1/"), nil), ErrRedirectBlocked)
	assert.ErrorIs(t, policy(req("http://192.168.1.1/"), nil), urlguard.ErrBlockedTarget)
	assert.ErrorIs(t, policy(req("http://localhost:8080/"), nil), ErrRedirectBlocked)

	via := make([]*http.Request, maxRedirects)
	assert.ErrorIs(t, policy(req("https://example.com/loop"), via), ErrTooManyRedirects)
}

func TestFetch_CanceledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Fetch(ctx, srv.URL)
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFriendlyMessage_SeededIsRepeatable(t *testing.T) {
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		ma, mb := FriendlyMessage(a), FriendlyMessage(b)
		assert.Equal(t, ma, mb)
		assert.Contains(t, FriendlyMessages(), ma)
	}
}

func TestFriendlyMessages_ReturnsCopy(t *testing.T) {
	pool := FriendlyMessages()
	pool[0] = "mutated"
	assert.NotEqual(t, "mutated", FriendlyMessages()[0])
}
