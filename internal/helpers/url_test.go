package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchableURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "defaults https",
			in:   "Example.com/news/latest",
			want: "https://example.com/news/latest",
		},
		{
			name: "drops fragment and tracking params",
			in:   "http://News.Example.com/article?id=123&utm_source=rss#section",
			want: "http://news.example.com/article?id=123",
		},
		{
			name: "handles schemeless url with double slash",
			in:   "//blog.example.com/post/42?fbclid=x",
			want: "https://blog.example.com/post/42",
		},
		{
			name: "keeps port",
			in:   "http://127.0.0.1:8080/a",
			want: "http://127.0.0.1:8080/a",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FetchableURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFetchableURLRejects(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", "ftp://example.com/file", "mailto:someone@example.com", "https://"} {
		_, err := FetchableURL(in)
		assert.ErrorIs(t, err, ErrUnfetchableURL, in)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "h", Truncate("héllo", 2), "rune-safe cut")
	assert.Equal(t, "hello", Truncate("hello", 0))
}
