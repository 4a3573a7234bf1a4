package models

// ElementKind identifies the type of content an extracted element carries.
type ElementKind string

const (
	KindText  ElementKind = "text"
	KindTable ElementKind = "table"
	KindImage ElementKind = "image"
)

// Element is one extracted unit of a source document. Elements are created
// during extraction and never mutated afterwards.
type Element struct {
	ID         string      `bson:"element_id" json:"id"`
	Kind       ElementKind `bson:"kind" json:"kind"`
	RawContent string      `bson:"raw_content" json:"raw_content"` // text, serialized table, or base64 image payload
	Order      int         `bson:"order" json:"order"`             // position within the source document
}

// Summary is the LLM-condensed representation of a single element. It is what
// gets embedded and indexed; the raw content never reaches the vector store.
type Summary struct {
	ElementID string `json:"element_id"`
	Text      string `json:"text"`
}

// IndexEntry pairs a summary embedding with the element it stands for.
// Every IndexEntry's ElementID must resolve through the DocStore.
type IndexEntry struct {
	ElementID string    `bson:"element_id" json:"element_id"`
	Vector    []float32 `bson:"vector" json:"-"`
}

// SearchHit is a single similarity-search result.
type SearchHit struct {
	ElementID string
	Score     float64
}
