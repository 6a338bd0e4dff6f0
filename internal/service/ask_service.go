package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schle1cherr/docrag/internal/ai"
	"github.com/schle1cherr/docrag/internal/assemble"
	"github.com/schle1cherr/docrag/internal/model"
	"github.com/schle1cherr/docrag/internal/retrieval"
)

var ErrAIUnavailable = ai.ErrUnavailable

// NoInformationAnswer is returned whenever retrieval or assembly ends in an
// empty context. "Nothing found" is a normal outcome, not an error.
const NoInformationAnswer = "No reliable information on this question is available in the indexed documents."

const systemPrompt = `You answer questions strictly from the provided official documents.
Include instructions, process steps and practical notes when the context contains them, and present steps in order.
When the context names a numbered section or paragraph, refer to it explicitly.
Be extremely careful with fees and tax amounts: state a value only if it appears verbatim in the context.
Prefer a tabular or numbered presentation, for example: 1. Amount: ..., 2. Validity: ..., 3. Source: ...`

// Answer is the response of one /ask request.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Outcome string   `json:"outcome"`
}

// AskService runs the full query pipeline: hybrid retrieval, context
// assembly, then one LLM call over the assembled evidence.
type AskService struct {
	fusion    *retrieval.Fusion
	assembler *assemble.Assembler
	generator ai.IGenerator
}

func NewAskService(fusion *retrieval.Fusion, assembler *assemble.Assembler, generator ai.IGenerator) *AskService {
	return &AskService{fusion: fusion, assembler: assembler, generator: generator}
}

func (s *AskService) Ask(ctx context.Context, question string) (*Answer, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("question", question))

	results, err := s.fusion.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	assembled := s.assembler.Assemble(results)
	if assembled.Outcome != assemble.OutcomeOK {
		logger.Info("no usable context", zap.String("outcome", string(assembled.Outcome)))
		return &Answer{
			Answer:  NoInformationAnswer,
			Sources: []string{},
			Outcome: string(assembled.Outcome),
		}, nil
	}
	logger.Info("context assembled",
		zap.Int("chunks", len(assembled.Included)),
		zap.Int("context_chars", len(assembled.Text)),
	)

	if s.generator == nil {
		return nil, ErrAIUnavailable
	}
	prompt := fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s",
		systemPrompt, strings.TrimSpace(assembled.Text), question)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Answer:  answer,
		Sources: assembled.Citations,
		Outcome: string(assemble.OutcomeOK),
	}, nil
}

// Search exposes the fused ranking without assembly or generation, for
// previewing what evidence a question would surface.
func (s *AskService) Search(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	results, err := s.fusion.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	chunks := make([]model.Chunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, res.Chunk)
	}
	return chunks, nil
}
