package domain

// Document is the input unit of ingestion. It is consumed immediately;
// only its derived chunks are persisted (as vector store points).
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Metadata carries the document attributes stored alongside every chunk.
// Source is the unique key for deletion and re-ingest dedup.
type Metadata struct {
	Source   string
	Title    string
	Category string
}

// Chunk is a contiguous window of a document's normalized text with its
// zero-based position within that document.
type Chunk struct {
	Text  string
	Index int
}

// Match is a query-time search hit: a point's payload plus its cosine
// similarity score in [0,1].
type Match struct {
	Score   float64
	Payload Payload
}

// Payload is the typed record stored with every point. It is validated at
// the vector store boundary; malformed fields default to zero values rather
// than being trusted at runtime.
type Payload struct {
	Text       string `json:"text"`
	DocID      string `json:"doc_id"`
	ChunkIndex int    `json:"chunk_index"`
	Source     string `json:"source,omitempty"`
	Title      string `json:"title,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Label returns the display label for a match entry: title, falling back to
// source, then the parent document id, then the literal "document".
func (p Payload) Label() string {
	switch {
	case p.Title != "":
		return p.Title
	case p.Source != "":
		return p.Source
	case p.DocID != "":
		return p.DocID
	default:
		return "document"
	}
}

// Point is the persisted unit in the vector store. The vector length must
// match the collection's configured size.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}
