package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/chat"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
)

const (
	DefaultSummaryTitle = "Article Summary of Drug Discovery Conversation"
	ErrorSummaryTitle   = "Article Summary (Error Occurred)"
	ErrorSummaryContent = "An error occurred while generating the article. Please try again."

	titleMarker = "TITLE: "
)

// DefaultSummaryTTL applies when no TTL is configured.
const DefaultSummaryTTL = time.Hour

// Summary is an article generated from a chat transcript.
type Summary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SummaryCache stores generated summaries. redis.Cache satisfies it.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Completer produces a single completion, "" on failure.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// PromptRenderer renders a named template.
type PromptRenderer interface {
	Render(name string, data interface{}) (string, error)
}

// SummaryRecorder counts summaries by where they came from.
type SummaryRecorder interface {
	RecordSummary(source string)
}

// Summarizer writes articles from transcripts, caching them per chat and message count.
type Summarizer struct {
	llm     Completer
	prompts PromptRenderer
	cache   SummaryCache
	ttl     time.Duration
	metrics SummaryRecorder
	logger  logging.Logger
}

// NewSummarizer returns a Summarizer. cache and metrics may be nil.
func NewSummarizer(llm Completer, prompts PromptRenderer, cache SummaryCache, ttl time.Duration, metrics SummaryRecorder, logger logging.Logger) *Summarizer {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Summarizer{
		llm:     llm,
		prompts: prompts,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("summary"),
	}
}

// Summarize returns the article for the given messages. It never fails: an
// unusable LLM answer yields the error summary, which is not cached.
func (s *Summarizer) Summarize(ctx context.Context, chatID string, messages []*chat.Message) *Summary {
	key := summaryKey(chatID, len(messages))
	if s.cache != nil {
		var cached Summary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.record("cache")
			return &cached
		}
	}

	text, err := s.prompts.Render(prompt.ChatSummary, map[string]interface{}{
		"Transcript": Transcript(messages),
	})
	if err != nil {
		s.logger.Error("summary prompt failed", logging.ChatID(chatID), logging.Err(err))
		s.record("error")
		return errorSummary()
	}

	response := s.llm.Complete(ctx, text)
	if strings.TrimSpace(response) == "" {
		s.logger.Warn("summary generation returned no text", logging.ChatID(chatID))
		s.record("error")
		return errorSummary()
	}

	summary := ParseArticle(response)
	s.record("llm")
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("summary cache write failed", logging.ChatID(chatID), logging.Err(err))
		}
	}
	return summary
}

func (s *Summarizer) record(source string) {
	if s.metrics != nil {
		s.metrics.RecordSummary(source)
	}
}

// Transcript renders messages as "User: ..." and "Assistant: ..." paragraphs.
func Transcript(messages []*chat.Message) string {
	var b strings.Builder
	for _, m := range messages {
		role := "Assistant"
		if m.Role == chat.RoleUser {
			role = "User"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ParseArticle splits an LLM answer into title and body. The title is the rest
// of the line after the first "TITLE: " and the body is everything after that
// line. Without a marker the whole answer is the body.
func ParseArticle(response string) *Summary {
	start := strings.Index(response, titleMarker)
	if start < 0 {
		return &Summary{Title: DefaultSummaryTitle, Content: response}
	}
	start += len(titleMarker)
	end := strings.Index(response[start:], "\n")
	if end < 0 {
		end = len(response)
	} else {
		end += start
	}
	return &Summary{
		Title:   strings.TrimSpace(response[start:end]),
		Content: strings.TrimSpace(response[end:]),
	}
}

func errorSummary() *Summary {
	return &Summary{Title: ErrorSummaryTitle, Content: ErrorSummaryContent}
}

func summaryKey(chatID string, messageCount int) string {
	return fmt.Sprintf("summary:%s:%d", chatID, messageCount)
}

//Personal.AI order the ending
