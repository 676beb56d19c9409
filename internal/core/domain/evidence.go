package domain

import "time"

// Abstract is one PubMed abstract fetched for the evidence corpus.
type Abstract struct {
	// PMID is the PubMed identifier.
	PMID string

	// Text is the abstract body with newlines collapsed to spaces.
	Text string

	// Topic is the search query that surfaced the abstract.
	Topic string

	// FetchedAt is when the abstract was downloaded.
	FetchedAt time.Time
}

// Chunk is a fixed-size window over an abstract. Chunks are the unit of
// embedding and retrieval and are immutable once indexed.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// PMID links to the parent Abstract.
	PMID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the abstract.
	Position int

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}

// EvidencePassage is a retrieved chunk together with its similarity to the query.
type EvidencePassage struct {
	// SourceID is the PMID of the abstract the passage came from.
	SourceID string `json:"source_id"`

	// ChunkID identifies the chunk within the evidence store.
	ChunkID string `json:"chunk_id"`

	// Text is the passage content.
	Text string `json:"text"`

	// Similarity is the cosine similarity to the query, higher is closer.
	Similarity float64 `json:"similarity"`
}

// IndexStats summarises the evidence store.
type IndexStats struct {
	Abstracts int
	Chunks    int
	Embedded  int
	BuiltAt   time.Time
}

// Ready reports whether the index can serve retrieval.
func (s IndexStats) Ready() bool {
	return s.Embedded > 0
}

// DefaultTopics are the PubMed queries used to build the evidence corpus.
func DefaultTopics() []string {
	return []string{
		"COVID reinfection risk",
		"COVID vaccine effectiveness",
		"COVID recovery predictors",
		"Long COVID & Post-Acute Sequelae",
	}
}
