package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>t</title></head>
<body>
<header><img src="/images/logo.png"></header>
<h1>  عنوان <strong>خبر</strong> </h1>
<a href="/sport/123456/news">first</a>
<a href="https://other.example/x">other</a>
<img data-src="/images/lazy.jpg">
</body>
</html>`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testPage)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticSession_QueryBeforeNavigate(t *testing.T) {
	s := NewStaticSession(nil, time.Second)

	_, err := s.Elements(context.Background(), "//a")
	assert.ErrorIs(t, err, ErrNoPage)

	_, err = s.ContentHeight(context.Background())
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestStaticSession_NavigateAndQuery(t *testing.T) {
	srv := newTestServer(t)
	s := NewStaticSession(srv.Client(), time.Second)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL+"/page"))

	anchors, err := s.Elements(ctx, "//a")
	require.NoError(t, err)
	require.Len(t, anchors, 2)

	href, err := anchors[0].Attr("href")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/sport/123456/news", href, "relative href should be resolved")

	text, err := anchors[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	imgs, err := s.Elements(ctx, "//img[not(ancestor::header)]")
	require.NoError(t, err)
	require.Len(t, imgs, 1)

	src, err := imgs[0].Attr("src")
	require.NoError(t, err)
	assert.Empty(t, src, "missing attribute yields empty string")

	lazy, err := imgs[0].Attr("data-src")
	require.NoError(t, err)
	assert.Equal(t, "/images/lazy.jpg", lazy, "data-src is returned verbatim")
}

func TestStaticSession_WaitElement(t *testing.T) {
	srv := newTestServer(t)
	s := NewStaticSession(srv.Client(), time.Second)
	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL+"/page"))

	el, err := s.WaitElement(ctx, "//h1", time.Second)
	require.NoError(t, err)
	text, err := el.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "خبر")

	_, err = s.WaitElement(ctx, "//h3", time.Second)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestStaticSession_HeightIsStable(t *testing.T) {
	srv := newTestServer(t)
	s := NewStaticSession(srv.Client(), time.Second)
	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL+"/page"))

	before, err := s.ContentHeight(ctx)
	require.NoError(t, err)
	assert.Positive(t, before)

	require.NoError(t, s.ScrollToBottom(ctx, 0))

	after, err := s.ContentHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStaticSession_NavigationFailure(t *testing.T) {
	srv := newTestServer(t)
	s := NewStaticSession(srv.Client(), time.Second)
	ctx := context.Background()

	err := s.Navigate(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrNavigation)

	err = s.Navigate(ctx, "http://127.0.0.1:0/unreachable")
	assert.ErrorIs(t, err, ErrNavigation)
}

func TestStaticSession_InvalidXPath(t *testing.T) {
	srv := newTestServer(t)
	s := NewStaticSession(srv.Client(), time.Second)
	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL+"/page"))

	_, err := s.Elements(ctx, "//a[")
	assert.Error(t, err)
}

func TestStaticSession_TextBreaksAtBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>ignored</title></head><body>`+
			`<h1>Head</h1><div>First   paragraph</div><div>Second<br>line</div>`+
			`<script>var hidden = 1;</script><style>p{}</style>`+
			`<p>inline <b>bold</b> text</p></body></html>`)
	}))
	t.Cleanup(srv.Close)

	s := NewStaticSession(srv.Client(), time.Second)
	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL))

	els, err := s.Elements(ctx, "//body")
	require.NoError(t, err)
	require.Len(t, els, 1)

	text, err := els[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "Head\nFirst paragraph\nSecond\nline\ninline bold text", text)
}
