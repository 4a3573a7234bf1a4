package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"multivector-rag/internal/logger"
	"multivector-rag/internal/store"
	"multivector-rag/models"
)

// CompletionClient is the slice of the LLM client the summarizer needs.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, prompt, imageB64 string) (string, error)
}

// SummaryCache persists summaries keyed by content hash so that reloading the
// same document skips recomputation.
type SummaryCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, summary string)
}

// SummarizationService turns raw element content into short summaries fit for
// embedding. Text and table elements go through the text model; image
// elements go through the vision model.
type SummarizationService struct {
	client   CompletionClient
	cache    SummaryCache
	maxChars int
}

func NewSummarizationService(client CompletionClient, cache SummaryCache, maxChars int) *SummarizationService {
	if cache == nil {
		cache = store.NoopSummaryCache{}
	}
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &SummarizationService{client: client, cache: cache, maxChars: maxChars}
}

// Summarize returns the summary for a single element, reusing a cached result
// for identical content when available.
func (ss *SummarizationService) Summarize(ctx context.Context, el models.Element) (models.Summary, error) {
	key := store.SummaryKey(string(el.Kind) + ":" + el.RawContent)
	if cached, ok := ss.cache.Get(ctx, key); ok {
		logger.Debug("summary cache hit", "element_id", el.ID)
		return models.Summary{ElementID: el.ID, Text: cached}, nil
	}

	var text string
	var err error
	switch el.Kind {
	case models.KindImage:
		text, err = ss.client.DescribeImage(ctx, "describe the image in detail", el.RawContent)
	default:
		text, err = ss.client.Complete(ctx, buildSummaryPrompt(truncateText(el.RawContent, ss.maxChars)))
	}
	if err != nil {
		return models.Summary{}, &models.TransientError{Op: "summarize element " + el.ID, Err: err}
	}

	ss.cache.Set(ctx, key, text)
	return models.Summary{ElementID: el.ID, Text: text}, nil
}

// buildSummaryPrompt creates the prompt for text and table summarization
func buildSummaryPrompt(content string) string {
	return fmt.Sprintf(`You are an assistant tasked with summarizing tables and text.
Give a concise summary of the tables or text.

Respond with only summary, no additional comment.
Do not start your message by saying "Here is a summary" or anything like that.
Just provide the summary as it is.

Table or text chunk: %s`, content)
}

// truncateText truncates text to at most maxLength bytes, cutting on a rune
// boundary so the prompt stays valid UTF-8
func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
