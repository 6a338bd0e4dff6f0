package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "lowercase line continues previous",
			raw:  "Die Steuer wird\nerhoben für alle\nSpielapparate.",
			want: []string{"Die Steuer wird erhoben für alle Spielapparate."},
		},
		{
			name: "uppercase line starts new logical line",
			raw:  "Erster Satz endet hier.\nZweiter Satz beginnt neu.",
			want: []string{"Erster Satz endet hier.", "Zweiter Satz beginnt neu."},
		},
		{
			name: "umlaut and sharp s continuations",
			raw:  "Die Satzung\nüber Gebühren\nßerordentlich",
			want: []string{"Die Satzung über Gebühren ßerordentlich"},
		},
		{
			name: "empty lines dropped",
			raw:  "Erster Absatz.\n\n\nZweiter Absatz.",
			want: []string{"Erster Absatz.", "Zweiter Absatz."},
		},
		{
			name: "whitespace only input",
			raw:  "  \n \t \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, mergeLines(tt.raw))
		})
	}
}

func TestSegmentSections_SplitsAtMarkers(t *testing.T) {
	raw := "§ 5 Gebühren\nDie Gebühr beträgt 84 Euro.\n§ 6 Abs. 2 Fälligkeit\nDie Gebühr ist fällig am Monatsende."
	chunks := SegmentSections(raw, "satzung.pdf", 3)

	require.Len(t, chunks, 2)
	require.Equal(t, "5", chunks[0].SectionLabel)
	require.Equal(t, "6", chunks[1].SectionLabel)
	for _, c := range chunks {
		require.True(t, strings.HasPrefix(c.Content, "§"))
		require.Equal(t, "satzung.pdf", c.Source)
		require.NotNil(t, c.PageNumber)
		require.Equal(t, 3, *c.PageNumber)
	}
	require.Contains(t, chunks[0].Content, "84 Euro")
	require.Contains(t, chunks[1].Content, "fällig")
}

func TestSegmentSections_LetterSuffixLabel(t *testing.T) {
	chunks := SegmentSections("§ 12a Sondernutzung\nEs gilt folgendes.", "satzung.pdf", 1)
	require.Len(t, chunks, 1)
	require.Equal(t, "12a", chunks[0].SectionLabel)
}

func TestSegmentSections_RepairsMissingMarker(t *testing.T) {
	// No marker anywhere on the page: the piece is re-prefixed so it stays
	// citeable.
	chunks := SegmentSections("Allgemeine Vorschriften gelten.", "satzung.pdf", 1)
	require.Len(t, chunks, 1)
	require.True(t, strings.HasPrefix(chunks[0].Content, "§ "))
	require.Empty(t, chunks[0].SectionLabel)
}

func TestSegmentSections_NeverEmitsEmptyChunks(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n  ",
		"§ 1\n§ 2\n§ 3",
		"Text ohne Marker",
	}
	for _, raw := range inputs {
		for _, c := range SegmentSections(raw, "f.pdf", 1) {
			require.NotEmpty(t, strings.TrimSpace(c.Content))
		}
	}
}

func TestSegmentSections_SplitIsIdempotent(t *testing.T) {
	raw := "Vorbemerkung zum Text\n§ 5 Gebühren\nDie Gebühr beträgt 84 Euro,\nzahlbar sofort.\n§ 6a Abs. 1 Zuständigkeit\nDas Amt entscheidet."
	chunks := SegmentSections(raw, "satzung.pdf", 2)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		again := SegmentSections(c.Content, c.Source, 2)
		require.Len(t, again, 1, "re-splitting %q must yield exactly one chunk", c.Content)
	}
}

func TestSegmentNumbered(t *testing.T) {
	raw := "16. Hundesteuer\nDie Steuer beträgt 60 Euro\njährlich.\n17. Spielapparatesteuer\nJe Apparat werden 132 Euro\nerhoben."
	chunks := SegmentNumbered(raw, "gebuehren.pdf", 4)

	require.Len(t, chunks, 2)
	require.Contains(t, chunks[0].Content, "Hundesteuer")
	require.Contains(t, chunks[1].Content, "Spielapparatesteuer")
	for _, c := range chunks {
		require.Empty(t, c.SectionLabel)
		require.Equal(t, 4, *c.PageNumber)
	}
}

func TestSegmentNumbered_PreambleBeforeFirstMarker(t *testing.T) {
	raw := "Allgemeiner Teil der Ordnung.\n1. Geltungsbereich\nDiese Ordnung gilt überall."
	chunks := SegmentNumbered(raw, "ordnung.pdf", 1)
	require.Len(t, chunks, 2)
	require.Equal(t, "Allgemeiner Teil der Ordnung.", chunks[0].Content)
}

func TestSegmentPage_PolicySelection(t *testing.T) {
	// A section symbol anywhere wins over numbered prefixes.
	mixed := SegmentPage("§ 5 Gebühren\n1. Absatz eins", "a.pdf", 1)
	require.Len(t, mixed, 1)
	require.Equal(t, "5", mixed[0].SectionLabel)

	numbered := SegmentPage("16. Hundesteuer\nDie Steuer beträgt 60 Euro.\n17. Spielapparatesteuer\nJe Apparat 132 Euro.", "b.pdf", 1)
	require.Len(t, numbered, 2)
	for _, c := range numbered {
		require.Empty(t, c.SectionLabel)
		require.False(t, strings.HasPrefix(c.Content, "§"))
	}

	// Neither marker style: section policy repairs the prefix.
	plain := SegmentPage("Allgemeine Vorschriften gelten.", "c.pdf", 1)
	require.Len(t, plain, 1)
	require.True(t, strings.HasPrefix(plain[0].Content, "§ "))
}

func TestSegmentFlat(t *testing.T) {
	chunks := SegmentFlat("  Zeile 1 | Zeile 2\n", "tabelle.xlsx")
	require.Len(t, chunks, 1)
	require.Equal(t, "Zeile 1 | Zeile 2", chunks[0].Content)
	require.Nil(t, chunks[0].PageNumber)

	require.Empty(t, SegmentFlat("   \n ", "leer.xlsx"))
}
