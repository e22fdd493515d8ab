package searchlink

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	links := Build("Apple iPhone 15 128 GB & Kılıf")
	require.Len(t, links, 3)

	assert.Equal(t, "Trendyol", links[0].Store)
	assert.Equal(t, "https://www.trendyol.com/sr?q=Apple%20iPhone%2015%20128%20GB%20%26%20K%C4%B1l%C4%B1f", links[0].URL)
	assert.Equal(t, "Hepsiburada", links[1].Store)
	assert.True(t, strings.HasPrefix(links[1].URL, "https://www.hepsiburada.com/ara?q=Apple%20iPhone"))
	assert.Equal(t, "Amazon", links[2].Store)
	assert.True(t, strings.HasPrefix(links[2].URL, "https://www.amazon.com.tr/s?k=Apple%20iPhone"))
}

func TestBuild_DefaultQuery(t *testing.T) {
	for _, title := range []string{"", "   \n\t"} {
		links := Build(title)
		assert.Equal(t, "https://www.trendyol.com/sr?q=%C3%BCr%C3%BCn", links[0].URL)
	}
}

func TestBuild_QueryLimit(t *testing.T) {
	links := Build(strings.Repeat("ş", 200))

	u, err := url.Parse(links[0].URL)
	require.NoError(t, err)
	assert.Equal(t, 120, utf8.RuneCountInString(u.Query().Get("q")))
}
