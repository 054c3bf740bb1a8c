package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeName(t *testing.T) {
	cases := []struct {
		in, stem, ext string
	}{
		{"photo.JPG", "photo", ".jpg"},
		{"my report (final).pdf", "my_report_final", ".pdf"},
		{"../../etc/passwd", "passwd", ""},
		{`C:\Users\me\évidence.png`, "evidence", ".png"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{".bashrc", "bashrc", ""},
		{"", "file", ""},
		{"日本語.txt", "file", ".txt"},
		{"weird.$$$", "weird", ""},
		{"name.waytoolongextension", "name", ""},
	}
	for _, tc := range cases {
		stem, ext := SafeName(tc.in)
		assert.Equal(t, tc.stem, stem, "stem of %q", tc.in)
		assert.Equal(t, tc.ext, ext, "ext of %q", tc.in)
	}
}

func TestSafeName_TruncatesStem(t *testing.T) {
	stem, ext := SafeName(strings.Repeat("a", 200) + ".doc")
	assert.Len(t, stem, maxStemLen)
	assert.Equal(t, ".doc", ext)
}

func TestRandomID(t *testing.T) {
	a, b := randomID(), randomID()
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}
