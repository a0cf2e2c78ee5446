package gemini

import (
	"context"
	"strings"

	"github.com/KNICEX/trading-sim/internal/service/llm"
	"github.com/google/generative-ai-go/genai"
)

type Session struct {
	session *genai.ChatSession
}

func (s Session) Ask(ctx context.Context, q llm.Question) (llm.Answer, error) {
	resp, err := s.session.SendMessage(ctx, genai.Text(q.Content))
	if err != nil {
		return llm.Answer{}, err
	}
	return parseResponse(resp), nil
}

type Service struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewService(client *genai.Client, opts ...Option) llm.Service {
	svc := &Service{
		client: client,
		model:  client.GenerativeModel("gemini-2.0-flash"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type Option func(service *Service)

func WithTemperature(temp float32) Option {
	return func(service *Service) {
		service.model.SetTemperature(temp)
	}
}

func WithModel(name string) Option {
	return func(service *Service) {
		service.model = service.client.GenerativeModel(name)
	}
}

func (s *Service) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(q.Content))
	if err != nil {
		return llm.Answer{}, err
	}
	return parseResponse(resp), nil
}

func (s *Service) BeginChat(ctx context.Context) (llm.Session, error) {
	return &Session{
		session: s.model.StartChat(),
	}, nil
}

func parseResponse(resp *genai.GenerateContentResponse) llm.Answer {
	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for i, part := range resp.Candidates[0].Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(string(text))
		}
	}
	answer := llm.Answer{Content: sb.String()}
	if resp.UsageMetadata != nil {
		answer.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		answer.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return answer
}
