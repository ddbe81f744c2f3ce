package domain

import "time"

// Document is a published knowledge item: a technical summary, meeting note
// or similar text stored in the knowledge base. ID is assigned by the
// publishing layer and stays stable for the document's lifetime; it is also
// the prefix of every derived chunk ID.
type Document struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Chunk is a bounded-size segment of a document, the unit of embedding and
// retrieval. Chunks are derived state: they are regenerated whenever the
// parent document changes and are never persisted independently.
type Chunk struct {
	ID      string // "{docID}_chunk_{n}"
	DocID   string
	Title   string
	Content string
	Ordinal int
}

// RetrievalMethod tags how a result was found.
type RetrievalMethod string

const (
	MethodVector  RetrievalMethod = "vector"
	MethodKeyword RetrievalMethod = "keyword"
)

// RetrievalResult is one retrieved passage with its relevance score.
// Similarity is in [0,1], higher is more relevant. Transient, built per
// query.
type RetrievalResult struct {
	DocID      string            `json:"id"`
	ChunkID    string            `json:"chunk_id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Similarity float64           `json:"similarity"`
	Method     RetrievalMethod   `json:"retrieval_method"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Source identifies a document an answer was grounded on.
type Source struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Answer is the payload of a successful response.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Model   string   `json:"model"`
}

// Response is the tagged result returned to callers. Exactly one of Data
// (when Ok) or Message (when not) carries content; use the constructors
// rather than building one by hand.
type Response struct {
	Ok      bool    `json:"success"`
	Data    *Answer `json:"data,omitempty"`
	Message string  `json:"message,omitempty"`
}

// SuccessResponse wraps an answer payload.
func SuccessResponse(data Answer) Response {
	return Response{Ok: true, Data: &data}
}

// FailureResponse wraps a client-visible error message.
func FailureResponse(message string) Response {
	return Response{Ok: false, Message: message}
}
