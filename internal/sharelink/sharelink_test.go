package sharelink_test

import (
	"testing"

	"vodnote/internal/note"
	"vodnote/internal/sharelink"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	notes := []note.Note{
		note.New("good rotation", 12.7),
		note.New("missed the écart — über risky", 93.2),
		note.New("日本語のメモ", 605),
	}

	decoded := sharelink.Decode(sharelink.Encode(notes))
	if len(decoded) != len(notes) {
		t.Fatalf("expected %d notes, got %d", len(notes), len(decoded))
	}
	wantTimestamps := []float64{12, 93, 605}
	for i, d := range decoded {
		if d.Content != notes[i].Content {
			t.Fatalf("note %d content %q, want %q", i, d.Content, notes[i].Content)
		}
		if d.Timestamp != wantTimestamps[i] {
			t.Fatalf("note %d timestamp %v, want %v (floored)", i, d.Timestamp, wantTimestamps[i])
		}
		if d.ID == notes[i].ID {
			t.Fatalf("note %d kept its original id across the round trip", i)
		}
		if d.CreatedAt.Equal(notes[i].CreatedAt) {
			t.Fatalf("note %d kept its original createdAt across the round trip", i)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	if got := sharelink.Encode(nil); got != "" {
		t.Fatalf("Encode(nil) = %q, want empty", got)
	}
	if got := sharelink.Decode(""); len(got) != 0 {
		t.Fatalf("Decode(\"\") returned %d notes, want 0", len(got))
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"garbage", "%%%not-base64%%%"},
		{"not json", "bm90IGpzb24"},            // "not json"
		{"json object", "eyJ0IjoxMn0"},         // {"t":12}
		{"json string", "ImhlbGxvIg"},          // "hello"
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sharelink.Decode(tc.encoded); len(got) != 0 {
				t.Fatalf("Decode(%q) returned %d notes, want 0", tc.encoded, len(got))
			}
		})
	}
}

func TestDecodeAcceptsStandardAlphabetAndPadding(t *testing.T) {
	canonical := sharelink.Encode([]note.Note{note.New("a/b+c?", 61)})
	padded := canonical
	for len(padded)%4 != 0 {
		padded += "="
	}
	decoded := sharelink.Decode(padded)
	if len(decoded) != 1 || decoded[0].Content != "a/b+c?" {
		t.Fatalf("padded decode failed: %#v", decoded)
	}
}

func TestBuildParseSharedRoundTrip(t *testing.T) {
	const videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	notes := []note.Note{note.New("opening", 10), note.New("midgame", 300)}

	link := sharelink.Build("https://vodding.app/", videoURL, notes, true)
	params := sharelink.Parse(link)

	if params.VideoURL != videoURL {
		t.Fatalf("parsed video URL %q, want %q", params.VideoURL, videoURL)
	}
	if !params.Shared {
		t.Fatal("expected shared marker on share link")
	}
	if len(params.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(params.Notes))
	}
	if params.Notes[0].Content != "opening" || params.Notes[1].Content != "midgame" {
		t.Fatalf("unexpected note contents: %#v", params.Notes)
	}
	if params.Notes[0].Timestamp != 10 || params.Notes[1].Timestamp != 300 {
		t.Fatalf("unexpected note timestamps: %#v", params.Notes)
	}
}

func TestBuildOmitsEmptyNotesParam(t *testing.T) {
	link := sharelink.Build("https://vodding.app/", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil, false)
	params := sharelink.Parse(link)
	if len(params.Notes) != 0 {
		t.Fatalf("expected no notes, got %d", len(params.Notes))
	}
	if params.Shared {
		t.Fatal("session mirror link must not carry the shared marker")
	}
}

func TestParseLegacyTimestampParam(t *testing.T) {
	params := sharelink.Parse("https://vodding.app/#v=https%253A%252F%252Fyoutu.be%252FdQw4w9WgXcQ&t=95")
	if params.VideoURL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("unexpected video URL %q", params.VideoURL)
	}
	if len(params.Notes) != 1 {
		t.Fatalf("expected one synthesized note, got %d", len(params.Notes))
	}
	if params.Notes[0].Timestamp != 95 {
		t.Fatalf("unexpected timestamp %v", params.Notes[0].Timestamp)
	}
}

func TestParseTotalOnMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"://bad",
		"https://vodding.app/",
		"https://vodding.app/#n=!!!&v=%zz",
		"https://vodding.app/#%zz=1",
	}
	for _, raw := range cases {
		params := sharelink.Parse(raw)
		if params.VideoURL != "" && raw != "https://vodding.app/#n=!!!&v=%zz" {
			t.Fatalf("Parse(%q) unexpectedly produced video URL %q", raw, params.VideoURL)
		}
		if len(params.Notes) != 0 {
			t.Fatalf("Parse(%q) unexpectedly produced notes", raw)
		}
	}
}

func TestSharedMarkerPresenceOnly(t *testing.T) {
	for _, frag := range []string{"shared", "shared=", "shared=0", "shared=false"} {
		params := sharelink.Parse("https://vodding.app/#v=x&" + frag)
		if !params.Shared {
			t.Fatalf("fragment %q should count as shared", frag)
		}
	}
}

func TestEncodeNFCStability(t *testing.T) {
	composed := "café"                 // U+00E9
	decomposed := "café"         // e + combining acute
	a := sharelink.Encode([]note.Note{{ID: "x", Timestamp: 1, Content: composed}})
	b := sharelink.Encode([]note.Note{{ID: "y", Timestamp: 1, Content: decomposed}})
	if a != b {
		t.Fatalf("NFC normalization should make encodings identical: %q vs %q", a, b)
	}
}
