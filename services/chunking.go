package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/google/uuid"
)

// Chunker splits document text into fixed-size overlapping chunks. The window
// advances by maxChunkSize-overlap each step, so adjacent chunks share exactly
// overlap characters except possibly the final pair.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

func NewChunker(maxChunkSize, overlap int) *Chunker {
	if maxChunkSize < 1 {
		maxChunkSize = 1000
	}
	if overlap < 0 || overlap >= maxChunkSize {
		overlap = maxChunkSize / 5
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// Chunk splits text into ordered chunks. Text that is empty after trimming
// whitespace yields ErrEmptyDocument. Sizes and boundaries count runes, not
// bytes, so multi-byte text never splits mid-rune; text at most maxChunkSize
// runes long comes back as one chunk.
func (c *Chunker) Chunk(text string) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyDocument
	}

	var chunks []models.Chunk
	runes := []rune(text)
	step := c.maxChunkSize - c.overlap

	for start, order := 0, 0; start < len(runes); start, order = start+step, order+1 {
		end := start + c.maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := string(runes[start:end])
		chunks = append(chunks, models.Chunk{
			ChunkID:    uuid.NewString(),
			Order:      order,
			StartIndex: start,
			EndIndex:   end,
			CharCount:  end - start,
			Text:       piece,
		})
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// CompressChunk compresses a chunk's text for storage. Small chunks stay
// uncompressed; compressed payloads are base64-encoded in Text.
func CompressChunk(chunk models.Chunk) (models.Chunk, error) {
	compressed, algorithm, err := utils.CompressText(chunk.Text)
	if err != nil {
		return chunk, err
	}
	if algorithm == utils.CompressionNone {
		return chunk, nil
	}

	chunk.Compressed = true
	chunk.Compression = string(algorithm)
	chunk.Text = base64.StdEncoding.EncodeToString(compressed)
	return chunk, nil
}

// DecompressChunk restores a chunk's original text.
func DecompressChunk(chunk models.Chunk) (models.Chunk, error) {
	if !chunk.Compressed {
		return chunk, nil
	}

	compressed, err := base64.StdEncoding.DecodeString(chunk.Text)
	if err != nil {
		return chunk, fmt.Errorf("failed to decode chunk: %w", err)
	}

	text, err := utils.DecompressText(compressed, utils.CompressionAlgorithm(chunk.Compression))
	if err != nil {
		return chunk, fmt.Errorf("failed to decompress chunk: %w", err)
	}

	chunk.Text = text
	chunk.Compressed = false
	chunk.Compression = ""
	return chunk, nil
}

// CompressChunksForStorage compresses every chunk for the document record.
func CompressChunksForStorage(chunks []models.Chunk) ([]models.Chunk, error) {
	out := make([]models.Chunk, len(chunks))
	for i, chunk := range chunks {
		compressed, err := CompressChunk(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to compress chunk %d: %w", i, err)
		}
		out[i] = compressed
	}
	return out, nil
}

// DecompressChunksForRetrieval restores every chunk's text.
func DecompressChunksForRetrieval(chunks []models.Chunk) ([]models.Chunk, error) {
	out := make([]models.Chunk, len(chunks))
	for i, chunk := range chunks {
		decompressed, err := DecompressChunk(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress chunk %d: %w", i, err)
		}
		out[i] = decompressed
	}
	return out, nil
}
