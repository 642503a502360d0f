package web_fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!doctype html><html><head><title>RBI tightens NBFC norms</title></head>
<body><article><h1>RBI tightens NBFC norms</h1>
<p>The Reserve Bank of India introduced new compliance guidelines for non-banking financial companies.
Lenders will need to strengthen governance, audit and risk processes over the coming quarters.</p>
<p>Analysts expect operational costs to rise as firms update workflows and reporting systems to comply.
Large players such as Bajaj Finance are expected to adapt faster than smaller lenders.</p>
<p>Industry bodies have asked the regulator for a phased timeline, arguing that smaller NBFCs lack the
technology budgets needed to rebuild credit assessment and customer onboarding pipelines in one cycle.</p>
</article></body></html>`

func TestFetcherExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	res, err := NewWebFetcher(time.Second, 0).Exec(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Text, "compliance guidelines")
}

func TestFetcherTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	res, err := NewWebFetcher(time.Second, 20).Exec(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Text), 20)
}

func TestFetcherErrors(t *testing.T) {
	f := NewWebFetcher(time.Second, 0)
	_, err := f.Exec(context.Background(), "not a url")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()
	res, err := f.Exec(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, http.StatusGone, res.Status)
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"":                                "",
		"   plain  text  ":                "plain text",
		"<p>Hello <b>world</b></p>":       "Hello world",
		"<script>alert(1)</script>Safe":   "Safe",
		"<div>line one</div>\n\n<div>two": "line one two",
	}
	for in, want := range tests {
		got := Clean(in)
		assert.Equal(t, want, got, in)
		assert.NotContains(t, got, "<")
	}
}
