package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"multivector-rag/internal/store"
	"multivector-rag/models"
)

type fakeExtractor struct {
	elements []models.Element
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) ([]models.Element, error) {
	return f.elements, f.err
}

type fakeSummarizer struct {
	failIDs map[string]bool
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, el models.Element) (models.Summary, error) {
	f.calls++
	if f.failIDs[el.ID] {
		return models.Summary{}, &models.TransientError{Op: "summarize element " + el.ID, Err: errors.New("rate limited")}
	}
	return models.Summary{ElementID: el.ID, Text: "summary of " + el.RawContent}, nil
}

type fakeEmbedder struct {
	vectors   map[string][]float32
	failTexts map[string]bool
	failAll   bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failAll || f.failTexts[text] {
		return nil, errors.New("embedding service down")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	// Deterministic fallback embedding so reloads produce identical vectors
	vec := make([]float32, 3)
	for i, b := range []byte(text) {
		vec[i%3] += float32(b)
	}
	return vec, nil
}

func textElement(id, content string, order int) models.Element {
	return models.Element{ID: id, Kind: models.KindText, RawContent: content, Order: order}
}

func testDocPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadChunksAndTexts(t *testing.T) {
	elements := []models.Element{
		textElement("t1", "alpha", 0),
		textElement("t2", "beta", 1),
		textElement("t3", "gamma", 2),
		{ID: "tab1", Kind: models.KindTable, RawContent: "a  b  c", Order: 3},
		textElement("t4", "delta", 4),
		textElement("t5", "epsilon", 5),
	}
	loader := NewPDFLoader(&fakeExtractor{elements: elements}, &fakeSummarizer{},
		&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)

	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	chunks := result.Chunks()
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Order != i {
			t.Errorf("chunk %d out of order: %d", i, ch.Order)
		}
	}

	texts := result.Texts()
	if len(texts) != 5 {
		t.Fatalf("expected 5 texts, got %d", len(texts))
	}
	want := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for i, w := range want {
		if texts[i] != w {
			t.Errorf("texts[%d] = %q, want %q", i, texts[i], w)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewPDFLoader(&fakeExtractor{}, &fakeSummarizer{},
		&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error should wrap fs.ErrNotExist, got: %v", err)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	loader := NewPDFLoader(&fakeExtractor{}, &fakeSummarizer{},
		&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)
	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("empty document must load: %v", err)
	}
	if len(result.Chunks()) != 0 {
		t.Fatalf("expected no chunks, got %d", len(result.Chunks()))
	}
	got, err := result.Retriever.Retrieve(context.Background(), "anything", 4)
	if err != nil {
		t.Fatalf("retrieval on empty index must not fail: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestSummarizerFailureSkipsImageElement(t *testing.T) {
	elements := []models.Element{
		textElement("e1", "one", 0),
		textElement("e2", "two", 1),
		{ID: "e3", Kind: models.KindImage, RawContent: "aGVsbG8=", Order: 2},
		textElement("e4", "four", 3),
		textElement("e5", "five", 4),
	}
	loader := NewPDFLoader(&fakeExtractor{elements: elements},
		&fakeSummarizer{failIDs: map[string]bool{"e3": true}},
		&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)

	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("load must survive a single summarization failure: %v", err)
	}
	if len(result.Chunks()) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(result.Chunks()))
	}

	got, err := result.Retriever.Retrieve(context.Background(), "anything at all", 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 indexed elements, got %d", len(got))
	}
	for _, el := range got {
		if el.ID == "e3" {
			t.Fatal("unindexed element e3 surfaced in retrieval")
		}
	}

	// Direct id lookup still works for the dropped element
	el, ok := result.Lookup("e3")
	if !ok || el.RawContent != "aGVsbG8=" {
		t.Fatalf("direct lookup of e3 failed: %v %v", el, ok)
	}
}

func TestSummarizerFailureFallsBackToRawText(t *testing.T) {
	elements := []models.Element{
		textElement("e1", "quarterly revenue table data", 0),
		textElement("e2", "other content", 1),
	}
	loader := NewPDFLoader(&fakeExtractor{elements: elements},
		&fakeSummarizer{failIDs: map[string]bool{"e1": true}},
		&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)

	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// e1 was indexed from its raw content, so it must still be retrievable
	got, err := result.Retriever.Retrieve(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both elements indexed, got %d", len(got))
	}
}

func TestEmbeddingFailureLeavesElementUnindexed(t *testing.T) {
	elements := []models.Element{
		textElement("e1", "one", 0),
		textElement("e2", "two", 1),
	}
	embedder := &fakeEmbedder{failTexts: map[string]bool{"summary of two": true}}
	loader := NewPDFLoader(&fakeExtractor{elements: elements}, &fakeSummarizer{},
		embedder, store.NewMemoryVectorStore(), 4)

	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := result.Retriever.Retrieve(context.Background(), "one", 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("expected only e1 indexed, got %v", got)
	}
	if _, ok := result.Lookup("e2"); !ok {
		t.Fatal("e2 must stay reachable by id")
	}
}

func TestNoDanglingIndexEntries(t *testing.T) {
	var elements []models.Element
	for i := 0; i < 8; i++ {
		elements = append(elements, textElement(fmt.Sprintf("id%d", i), fmt.Sprintf("content %d", i), i))
	}
	loader := NewPDFLoader(&fakeExtractor{elements: elements},
		&fakeSummarizer{failIDs: map[string]bool{"id5": true}},
		&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)

	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Every id the index returns must resolve; a ConsistencyError would fail this
	got, err := result.Retriever.Retrieve(context.Background(), "content", 100)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, el := range got {
		if _, ok := result.Lookup(el.ID); !ok {
			t.Fatalf("dangling index entry for %s", el.ID)
		}
	}
}

func TestTableRetrievedForItsTopic(t *testing.T) {
	tableRaw := "Quarter  Revenue\nQ1  10,000\nQ2  12,500"
	elements := []models.Element{
		textElement("t1", "introduction paragraph", 0),
		textElement("t2", "methodology notes", 1),
		textElement("t3", "acknowledgements", 2),
		textElement("t4", "bibliography", 3),
		textElement("t5", "appendix", 4),
		{ID: "tab", Kind: models.KindTable, RawContent: tableRaw, Order: 5},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"summary of " + tableRaw:            {1, 0, 0},
		"quarterly revenue figures":         {0.9, 0.1, 0},
		"summary of introduction paragraph": {0, 1, 0},
		"summary of methodology notes":      {0, 0.9, 0.1},
		"summary of acknowledgements":       {0, 0.8, 0.2},
		"summary of bibliography":           {0, 0.7, 0.3},
		"summary of appendix":               {0, 0.6, 0.4},
	}}
	loader := NewPDFLoader(&fakeExtractor{elements: elements}, &fakeSummarizer{},
		embedder, store.NewMemoryVectorStore(), 4)

	result, err := loader.Load(context.Background(), testDocPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, err := result.Retriever.Retrieve(context.Background(), "quarterly revenue figures", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	found := false
	for _, el := range got {
		if el.ID == "tab" {
			found = true
		}
	}
	if !found {
		t.Fatalf("table element missing from top-2 results: %v", got)
	}
}

func TestReloadClearsPriorIndexEntries(t *testing.T) {
	// A persistent store still holds entries from an earlier load of the
	// same document; their ids can never match this load's DocStore
	vectors := store.NewMemoryVectorStore()
	ctx := context.Background()
	for i, ghost := range []string{"old1", "old2", "old3"} {
		if err := vectors.Add(ctx, ghost, []float32{float32(i), 1, 0}); err != nil {
			t.Fatalf("seed Add: %v", err)
		}
	}

	elements := []models.Element{
		textElement("new1", "first section", 0),
		textElement("new2", "second section", 1),
	}
	loader := NewPDFLoader(&fakeExtractor{elements: elements}, &fakeSummarizer{},
		&fakeEmbedder{}, vectors, 4)

	result, err := loader.Load(ctx, testDocPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, err := result.Retriever.Retrieve(ctx, "section", 100)
	if err != nil {
		t.Fatalf("Retrieve after reload must not fail: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected only this load's 2 entries, got %d", len(got))
	}
	for _, el := range got {
		if el.ID == "old1" || el.ID == "old2" || el.ID == "old3" {
			t.Fatalf("stale entry %s surfaced in retrieval", el.ID)
		}
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	elements := []models.Element{
		textElement("a", "first section", 0),
		textElement("b", "second section", 1),
		textElement("c", "third section", 2),
	}

	query := "second section details"
	var runs [][]string
	for i := 0; i < 2; i++ {
		loader := NewPDFLoader(&fakeExtractor{elements: elements}, &fakeSummarizer{},
			&fakeEmbedder{}, store.NewMemoryVectorStore(), 4)
		result, err := loader.Load(context.Background(), testDocPath(t))
		if err != nil {
			t.Fatalf("Load #%d: %v", i, err)
		}
		got, err := result.Retriever.Retrieve(context.Background(), query, 3)
		if err != nil {
			t.Fatalf("Retrieve #%d: %v", i, err)
		}
		var ids []string
		for _, el := range got {
			ids = append(ids, el.ID)
		}
		runs = append(runs, ids)
	}

	if len(runs[0]) != len(runs[1]) {
		t.Fatalf("result counts differ: %v vs %v", runs[0], runs[1])
	}
	for i := range runs[0] {
		if runs[0][i] != runs[1][i] {
			t.Fatalf("ordering differs between loads: %v vs %v", runs[0], runs[1])
		}
	}
}
