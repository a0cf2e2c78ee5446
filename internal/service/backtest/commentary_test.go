package backtest

import (
	"context"
	"strings"
	"testing"

	"github.com/KNICEX/trading-sim/internal/service/llm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	lastQuestion string
}

func (s *stubLLM) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	s.lastQuestion = q.Content
	return llm.Answer{Content: "solid run, watch the drawdown"}, nil
}

func (s *stubLLM) BeginChat(ctx context.Context) (llm.Session, error) {
	return nil, nil
}

func TestCommentator_Comment(t *testing.T) {
	stub := &stubLLM{}
	commentator := NewCommentator(stub)

	result := &Result{
		Symbol:         "BTC",
		Strategy:       "sma_cross",
		CandleCount:    30,
		InitialCapital: decimal.NewFromInt(10000),
		FinalEquity:    decimal.NewFromInt(12000),
	}
	comment, err := commentator.Comment(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, "solid run, watch the drawdown", comment)

	assert.True(t, strings.Contains(stub.lastQuestion, "BTC"))
	assert.True(t, strings.Contains(stub.lastQuestion, "sma_cross"))
	assert.True(t, strings.Contains(stub.lastQuestion, "10000"))
}
