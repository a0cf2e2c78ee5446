package backtest

import (
	"context"
	"fmt"
	"strings"

	"github.com/KNICEX/trading-sim/internal/service/llm"
)

// Commentator turns a finished backtest into a short natural-language
// review of what the numbers say.
type Commentator struct {
	llmSvc llm.Service
}

func NewCommentator(llmSvc llm.Service) *Commentator {
	return &Commentator{llmSvc: llmSvc}
}

func (c *Commentator) Comment(ctx context.Context, result *Result) (string, error) {
	answer, err := c.llmSvc.AskOnce(ctx, llm.Question{
		Content: buildPrompt(result),
	})
	if err != nil {
		return "", err
	}
	return answer.Content, nil
}

func buildPrompt(result *Result) string {
	m := result.Metrics
	var sb strings.Builder
	sb.WriteString("You are reviewing the result of a trading strategy backtest. ")
	sb.WriteString("Summarize the performance in at most three short paragraphs, ")
	sb.WriteString("pointing out strengths, weaknesses and risk. Do not give financial advice.\n\n")
	fmt.Fprintf(&sb, "Symbol: %s\nStrategy: %s\nCandles: %d\n", result.Symbol, result.Strategy, result.CandleCount)
	fmt.Fprintf(&sb, "Initial capital: %s\nFinal equity: %s\nTotal return: %s%%\n",
		result.InitialCapital, result.FinalEquity, m.TotalReturnPercent.Round(2))
	fmt.Fprintf(&sb, "Trades: %d (win rate %s%%)\n", m.TotalTrades, m.WinRate.Round(2))
	fmt.Fprintf(&sb, "Profit factor: %.2f\nSharpe: %.2f\nSortino: %.2f\n", m.ProfitFactor, m.SharpeRatio, m.SortinoRatio)
	fmt.Fprintf(&sb, "Max drawdown: %s (%s%%)\n", m.MaxDrawdown.Round(2), m.MaxDrawdownPercent.Round(2))
	fmt.Fprintf(&sb, "Total fees paid: %s\n", result.TotalFees.Round(2))
	return sb.String()
}
