package handler

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncateRunes_NeverSplitsUTF8(t *testing.T) {
	// Every prefix length of a German legal text must stay valid UTF-8 even
	// when a byte-based cut would land inside a multi-byte rune.
	text := strings.Repeat("§ 5 Gebührenmaßstab für Straßenreinigung. ", 20)
	for n := 0; n <= utf8.RuneCountInString(text)+1; n++ {
		cut := truncateRunes(text, n)
		require.True(t, utf8.ValidString(cut), "cut at %d runes produced invalid UTF-8", n)
		require.LessOrEqual(t, utf8.RuneCountInString(cut), n)
	}
}

func TestTruncateRunes_Bounds(t *testing.T) {
	require.Equal(t, "", truncateRunes("abc", 0))
	require.Equal(t, "", truncateRunes("abc", -1))
	require.Equal(t, "abc", truncateRunes("abc", 3))
	require.Equal(t, "abc", truncateRunes("abc", 10))
	require.Equal(t, "§ 5", truncateRunes("§ 5 Gebühren", 3))
}
