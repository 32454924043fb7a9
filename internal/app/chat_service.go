package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"courseassist/internal/interaction"
	"courseassist/internal/knowledge"
	"courseassist/internal/logging"
	"courseassist/internal/monitoring"
	"courseassist/internal/wellbeing"
)

const (
	retrievalTopK = 3
	contextChunks = 2

	FallbackReply = "I'm sorry, I'm having trouble processing your request right now. Please try again or contact your instructor."
)

const promptTemplate = `You are a helpful academic assistant for undergraduate students in C++ programming and algorithms courses.

Context from course materials:
%s

Student question: %s

Please provide a helpful, encouraging response. If the question is about course content, use the context provided. If it's about programming, provide clear explanations and examples. Always be supportive and understanding of student stress.

Response:`

// Generator is the language model: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

type KnowledgeSearcher interface {
	SearchSimilar(ctx context.Context, query string, topK int) ([]knowledge.SearchResult, error)
}

// Reply is what goes back to the student for every inbound message.
type Reply struct {
	Message        string  `json:"message"`
	WellbeingScore float64 `json:"wellbeing_score"`
	Flagged        bool    `json:"flagged"`
}

type ChatService struct {
	llm          Generator
	knowledge    KnowledgeSearcher
	monitor      *wellbeing.Monitor
	interactions *interaction.Store
	metrics      *monitoring.Metrics
	topK         int
	contextSize  int
	now          func() time.Time
	log          zerolog.Logger
}

type ChatOptions struct {
	TopK          int
	ContextChunks int
	Metrics       *monitoring.Metrics
}

func NewChatService(
	llm Generator,
	kb KnowledgeSearcher,
	monitor *wellbeing.Monitor,
	interactions *interaction.Store,
	opts ChatOptions,
) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = retrievalTopK
	}
	if opts.ContextChunks <= 0 {
		opts.ContextChunks = contextChunks
	}
	return &ChatService{
		llm:          llm,
		knowledge:    kb,
		monitor:      monitor,
		interactions: interactions,
		metrics:      opts.Metrics,
		topK:         opts.TopK,
		contextSize:  opts.ContextChunks,
		now:          time.Now,
		log:          logging.NewLogger("chat"),
	}
}

// OpenSession prepares the student's interaction log; an existing log is reused.
func (s *ChatService) OpenSession(studentID string) {
	s.interactions.Open(studentID)
}

// HandleMessage runs one turn: log, score and retrieve in parallel, prompt the model, log the reply.
// Model failures become the fallback reply and are never returned.
func (s *ChatService) HandleMessage(ctx context.Context, studentID, message string) Reply {
	s.interactions.Append(interaction.UserRecord(s.now(), studentID, message))
	if s.metrics != nil {
		s.metrics.ChatMessagesTotal.Inc()
	}

	var (
		analysis wellbeing.Analysis
		docs     []knowledge.SearchResult
		g        errgroup.Group
	)
	g.Go(func() error {
		analysis = s.monitor.Analyze(ctx, message, studentID)
		return nil
	})
	g.Go(func() error {
		res, err := s.knowledge.SearchSimilar(ctx, message, s.topK)
		if err != nil {
			s.log.Warn().Err(err).Str("student_id", studentID).Msg("knowledge search failed, answering without context")
			return nil
		}
		docs = res
		return nil
	})
	_ = g.Wait()

	prompt := BuildPrompt(BuildContext(docs, s.contextSize), message)
	answer := s.generate(ctx, studentID, prompt)

	s.interactions.Append(interaction.BotRecord(s.now(), studentID, answer, analysis.WellbeingScore))
	return Reply{
		Message:        answer,
		WellbeingScore: analysis.WellbeingScore,
		Flagged:        analysis.FlagForReview,
	}
}

func (s *ChatService) generate(ctx context.Context, studentID, prompt string) string {
	start := time.Now()
	out, err := s.llm.Generate(ctx, prompt)
	if s.metrics != nil {
		s.metrics.LLMLatency.WithLabelValues(s.llm.Provider(), s.llm.Model()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.LLMErrorsTotal.WithLabelValues(s.llm.Provider(), s.llm.Model()).Inc()
		}
		s.log.Error().Err(err).
			Str("student_id", studentID).
			Str("model", s.llm.Model()).
			Msg("llm generate failed, sending fallback reply")
		return FallbackReply
	}
	return out
}

// BuildContext joins the content of the first n results with newlines.
func BuildContext(docs []knowledge.SearchResult, n int) string {
	if n > len(docs) {
		n = len(docs)
	}
	parts := make([]string, 0, n)
	for _, d := range docs[:n] {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n")
}

func BuildPrompt(courseContext, question string) string {
	return fmt.Sprintf(promptTemplate, courseContext, question)
}
