package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
)

const synthesisSystemPrompt = `You are a helpful AI assistant for our company's internal knowledge base. Provide clear, detailed answers using ONLY the provided context.

CRITICAL RULES:
- Answer ONLY from the provided context - synthesize and explain the information
- If no answer exists in context: "I don't have information about that in the knowledge base."
- Never fabricate information
- Provide helpful details and explanations, not just lists

FORMATTING RULES (MUST FOLLOW):

1. Start with a direct answer (1-2 sentences summarizing the key information)
2. Add a blank line after the summary
3. Organize detailed information under **bold headings**
4. Add blank lines before and after each heading
5. Use backticks for: commands, file paths, technical terms
6. Use numbered lists for sequential steps
7. Use bullet points (-) for non-sequential information
8. Include relevant details and explanations from the context`

// SynthesisService generates a grounded answer from the final context chunks.
type SynthesisService struct {
	completer Completer
}

func NewSynthesisService(completer Completer) *SynthesisService {
	return &SynthesisService{completer: completer}
}

// Synthesize builds the context block from chunk texts joined with "\n---\n"
// and asks the model for a grounded, formatted answer.
func (s *SynthesisService) Synthesize(ctx context.Context, query string, candidates []*domain.RetrievedCandidate) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "retrieval.synthesize", telemetry.SpanAttributes{
		Operation: "llm_completion",
	})
	defer span.End()

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Text
	}
	contextText := strings.Join(texts, "\n---\n")

	userPrompt := fmt.Sprintf(`Context:
---
%s
---

Question: %s

Provide a detailed, well-formatted answer following this structure:
1. Start with a 1-2 sentence summary
2. Add a blank line
3. Organize information under **bold headings**
4. Add blank lines before/after headings
5. Use backticks for commands/technical terms
6. Provide explanations and details, not just lists

Answer:`, contextText, query)

	answer, err := s.completer.Complete(ctx, synthesisSystemPrompt, userPrompt)
	if err != nil {
		span.SetError(err)
		return "", domain.NewUpstreamError("llm", err)
	}
	return answer, nil
}
