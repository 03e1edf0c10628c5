package models

import "time"

// Document processing statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Document is an uploaded artifact owned by exactly one tenant. Documents are
// immutable once completed; a re-upload creates a new document.
type Document struct {
	DocumentID   string    `bson:"_id" json:"document_id"`
	TenantID     string    `bson:"tenant_id" json:"tenant_id"`
	Filename     string    `bson:"filename" json:"filename"`
	ContentType  string    `bson:"content_type" json:"content_type"`
	Status       string    `bson:"status" json:"status"`
	ErrorMessage string    `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ChunkCount   int       `bson:"chunk_count" json:"chunk_count"`
	CharCount    int       `bson:"char_count" json:"char_count"`
	Chunks       []Chunk   `bson:"chunks,omitempty" json:"chunks,omitempty"`
	UploadedAt   time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// Chunk is the unit of retrieval: a bounded slice of the document text.
// Adjacent chunks of one document share the configured overlap. Text may be
// stored compressed; Compressed marks base64-encoded compressed payloads.
type Chunk struct {
	ChunkID     string `bson:"chunk_id" json:"chunk_id"`
	Order       int    `bson:"order" json:"order"`
	StartIndex  int    `bson:"start_index" json:"start_index"`
	EndIndex    int    `bson:"end_index" json:"end_index"`
	CharCount   int    `bson:"char_count" json:"char_count"`
	Text        string `bson:"text" json:"text"`
	Compressed  bool   `bson:"compressed,omitempty" json:"-"`
	Compression string `bson:"compression,omitempty" json:"-"`
}

// ChunkRecord is the denormalized retrieval row kept in the chunk index
// collection, one per chunk, always with plain (decompressed) text.
type ChunkRecord struct {
	ChunkID    string    `bson:"chunk_id" json:"chunk_id"`
	TenantID   string    `bson:"tenant_id" json:"tenant_id"`
	DocumentID string    `bson:"document_id" json:"document_id"`
	Filename   string    `bson:"filename" json:"filename"`
	Order      int       `bson:"order" json:"order"`
	StartIndex int       `bson:"start_index" json:"start_index"`
	EndIndex   int       `bson:"end_index" json:"end_index"`
	Text       string    `bson:"text" json:"text"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// ScoredChunk pairs a retrieval row with its relevance score.
type ScoredChunk struct {
	Chunk ChunkRecord `json:"chunk"`
	Score float64     `json:"score"`
}

// ChunkingConfig defines the sliding window: fixed maximum chunk length and
// the overlap shared between adjacent chunks (overlap < max size).
type ChunkingConfig struct {
	MaxChunkSize int `json:"max_chunk_size"`
	Overlap      int `json:"overlap"`
}

type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Message    string `json:"message,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
}

type AnswerRequest struct {
	Query string `json:"query" binding:"required,min=1,max=2000"`
}

// Answer is a generated reply plus the distinct source filenames of the
// chunks used, in first-seen order. Grounded is false when no chunks matched
// and the reply was produced without document context.
type Answer struct {
	Text      string    `json:"answer"`
	Sources   []string  `json:"sources"`
	Grounded  bool      `json:"grounded"`
	Provider  string    `json:"provider,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
