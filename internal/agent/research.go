package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/llm"
	"github.com/matsen/litbot/internal/scholar"
)

// emptyReply replaces a blank completion, which transports cannot send.
const emptyReply = "Sorry, I don't have an answer for that."

// Research answers a message no command matched. Research questions are
// searched and the results become the LLM's only source; other messages
// get a plain chat completion. Every returned paper joins the
// conversation's bibliography.
func (a *Agent) Research(ctx context.Context, conv, text string, notify Notifier) (string, error) {
	system := chatPrompt

	if a.isResearch(ctx, text) {
		query := a.searchQuery(ctx, text)
		if query == "" {
			system = researchPrompt
		} else {
			if err := notify(ctx, fmt.Sprintf("Searching for: '%s'...", query)); err != nil {
				a.logger.Warn("interim notification failed", zap.Error(err))
			}

			papers := a.search.Search(ctx, query, a.maxResults)
			for _, p := range papers {
				if _, err := a.bib.AddPaper(ctx, conv, p); err != nil {
					a.logger.Error("failed to record cited paper",
						zap.String("conversation", conv),
						zap.String("paper", p.Key()),
						zap.Error(err))
				}
			}
			system = groundedPrompt + scholar.FormatResults(query, papers)
		}
	}

	out, err := a.retrier.Complete(ctx, a.llm, llm.Request{System: system, User: text})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return emptyReply, nil
	}
	return out, nil
}

// isResearch asks the LLM whether text is a research question. Any
// failure or malformed answer counts as "no".
func (a *Agent) isResearch(ctx context.Context, text string) bool {
	resp, err := a.llm.Complete(ctx, llm.Request{System: classifyPrompt, User: text, JSON: true})
	if err != nil {
		a.logger.Warn("research classification failed", zap.Error(err))
		return false
	}
	var parsed struct {
		IsResearch *bool `json:"is_research"`
	}
	if err := llm.DecodeJSON(resp, &parsed); err != nil || parsed.IsResearch == nil {
		a.logger.Debug("unusable classification response", zap.String("response", resp))
		return false
	}
	return *parsed.IsResearch
}

// searchQuery asks the LLM for a short search query; empty on failure.
func (a *Agent) searchQuery(ctx context.Context, text string) string {
	resp, err := a.llm.Complete(ctx, llm.Request{System: queryPrompt, User: text, JSON: true})
	if err != nil {
		a.logger.Warn("search query extraction failed", zap.Error(err))
		return ""
	}
	var parsed struct {
		SearchQuery string `json:"search_query"`
	}
	if err := llm.DecodeJSON(resp, &parsed); err != nil {
		a.logger.Debug("unusable query response", zap.String("response", resp))
		return ""
	}
	return strings.TrimSpace(parsed.SearchQuery)
}
