package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"docqa-platform/models"
)

func TestChunkBoundaries(t *testing.T) {
	chunker := NewChunker(200, 50)
	text := strings.Repeat("a", 500)

	chunks, err := chunker.Chunk(text)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}

	want := [][2]int{{0, 200}, {150, 350}, {300, 500}}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if chunks[i].StartIndex != w[0] || chunks[i].EndIndex != w[1] {
			t.Errorf("chunk %d: got [%d:%d], want [%d:%d]",
				i, chunks[i].StartIndex, chunks[i].EndIndex, w[0], w[1])
		}
		if chunks[i].Order != i {
			t.Errorf("chunk %d: order = %d", i, chunks[i].Order)
		}
		if chunks[i].CharCount != w[1]-w[0] {
			t.Errorf("chunk %d: char count = %d, want %d", i, chunks[i].CharCount, w[1]-w[0])
		}
	}
}

func TestChunkShortText(t *testing.T) {
	chunker := NewChunker(1000, 200)

	chunks, err := chunker.Chunk("short document")
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].StartIndex != 0 || chunks[0].EndIndex != len("short document") {
		t.Errorf("bounds = [%d:%d]", chunks[0].StartIndex, chunks[0].EndIndex)
	}
}

func TestChunkExactMultiple(t *testing.T) {
	// Text that ends exactly on a window boundary must not yield a trailing
	// empty chunk.
	chunker := NewChunker(100, 0)
	text := strings.Repeat("b", 200)

	chunks, err := chunker.Chunk(text)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	last := chunks[len(chunks)-1]
	if last.EndIndex != 200 || last.CharCount == 0 {
		t.Errorf("last chunk bounds [%d:%d]", last.StartIndex, last.EndIndex)
	}
}

func TestChunkMultiByteText(t *testing.T) {
	// 500 three-byte runes. Boundaries must land on rune starts, never in
	// the middle of an encoded character.
	chunker := NewChunker(200, 50)
	text := strings.Repeat("文", 500)

	chunks, err := chunker.Chunk(text)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	want := [][2]int{{0, 200}, {150, 350}, {300, 500}}
	for i, w := range want {
		c := chunks[i]
		if c.StartIndex != w[0] || c.EndIndex != w[1] {
			t.Errorf("chunk %d: got [%d:%d], want [%d:%d]", i, c.StartIndex, c.EndIndex, w[0], w[1])
		}
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d: text is not valid UTF-8", i)
		}
		if got := utf8.RuneCountInString(c.Text); got != c.CharCount {
			t.Errorf("chunk %d: %d runes, char count says %d", i, got, c.CharCount)
		}
	}

	// A JSON round trip, as the chunk cache does, must not rewrite the text.
	payload, err := json.Marshal(chunks[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded models.Chunk
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Text != chunks[0].Text {
		t.Error("chunk text changed across a JSON round trip")
	}
}

func TestChunkOverlapShared(t *testing.T) {
	chunker := NewChunker(10, 4)
	text := "abcdefghijklmnopqrst"

	chunks, err := chunker.Chunk(text)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		curr := chunks[i]
		tail := prev.Text[len(prev.Text)-4:]
		head := curr.Text[:4]
		if tail != head {
			t.Errorf("chunks %d/%d overlap mismatch: %q vs %q", i-1, i, tail, head)
		}
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	chunker := NewChunker(1000, 200)

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		_, err := chunker.Chunk(text)
		if !errors.Is(err, models.ErrEmptyDocument) {
			t.Errorf("Chunk(%q) error = %v, want ErrEmptyDocument", text, err)
		}
	}
}

func TestCompressChunkRoundTrip(t *testing.T) {
	original := models.Chunk{
		ChunkID:   "c1",
		Text:      strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30),
		CharCount: 1350,
	}

	compressed, err := CompressChunk(original)
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	if !compressed.Compressed {
		t.Fatal("large chunk not compressed")
	}
	if compressed.Text == original.Text {
		t.Fatal("compressed text unchanged")
	}

	restored, err := DecompressChunk(compressed)
	if err != nil {
		t.Fatalf("decompress error: %v", err)
	}
	if restored.Text != original.Text {
		t.Fatal("round trip text mismatch")
	}
}

func TestCompressChunkSmallStaysPlain(t *testing.T) {
	chunk := models.Chunk{ChunkID: "c1", Text: "tiny"}

	out, err := CompressChunk(chunk)
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	if out.Compressed || out.Text != "tiny" {
		t.Errorf("small chunk altered: compressed=%v text=%q", out.Compressed, out.Text)
	}
}
