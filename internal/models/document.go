package models

import "time"

// Document is a unit of text stored in the vector database.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// ScoredDocument is a document returned from a similarity search,
// annotated with its cosine similarity to the query.
type ScoredDocument struct {
	Document
	Score float32
}

// Exchange is one agent run: the user input and the final answer.
type Exchange struct {
	Input  string
	Output string
	At     time.Time
}
