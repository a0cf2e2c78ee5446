package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/KNICEX/trading-sim/internal/schedule"
	"github.com/KNICEX/trading-sim/internal/service/backtest"
	"github.com/KNICEX/trading-sim/internal/service/broker"
	"github.com/KNICEX/trading-sim/internal/service/exchange"
	"github.com/KNICEX/trading-sim/internal/service/llm/gemini"
	"github.com/KNICEX/trading-sim/internal/service/market"
	binancemkt "github.com/KNICEX/trading-sim/internal/service/market/binance"
	"github.com/KNICEX/trading-sim/internal/service/notification"
	"github.com/KNICEX/trading-sim/internal/service/risk"
	"github.com/KNICEX/trading-sim/internal/service/strategy"
	"github.com/KNICEX/trading-sim/internal/service/trade"
	"github.com/KNICEX/trading-sim/internal/service/wallet"
	"github.com/KNICEX/trading-sim/ioc"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() (backtestMode bool) {
	cfile := pflag.String("config", "config/config.yaml", "config file path")
	bt := pflag.Bool("backtest", false, "run the backtest described in the config and exit")
	pflag.Parse()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("monitor.interval", "1s")
	viper.SetConfigFile(*cfile)
	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
	return *bt
}

func main() {
	backtestMode := initViper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db := ioc.InitDB()
	var (
		orderRepo repo.OrderRepo
		riskRepo  repo.RiskRepo
		walletRpo repo.WalletRepo
		txRepo    repo.TransactionRepo
	)
	if db != nil {
		orderRepo = repo.NewOrderRepo(db)
		riskRepo = repo.NewRiskRepo(db)
		walletRpo = repo.NewWalletRepo(db)
		txRepo = repo.NewTransactionRepo(db)
	} else {
		logger.Info("no db.dsn configured, using in-memory stores")
		orderRepo = repo.NewMemoryOrderRepo()
		riskRepo = repo.NewMemoryRiskRepo()
		walletRpo = repo.NewMemoryWalletRepo()
		txRepo = repo.NewMemoryTransactionRepo()
	}

	var (
		prices market.PriceSource
		feed   market.Feed
	)
	if viper.GetBool("market.simulated") {
		mem := market.NewMemorySource()
		prices = mem
		feed = mem
	} else {
		prices = binancemkt.NewSource(ioc.InitBinanceCli())
	}

	if backtestMode {
		runBacktest(prices, logger)
		return
	}

	brokers := broker.NewCatalog()
	wallets := wallet.NewService(walletRpo, txRepo, prices)
	riskSvc := risk.NewService(riskRepo, logger)
	adapter := exchange.NewPaperAdapter(wallets, brokers, logger)
	hub := notification.NewHub(logger)
	tradeSvc := trade.NewService(orderRepo, wallets, riskSvc, adapter, prices, hub, logger)
	monitor := trade.NewMonitor(tradeSvc, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hubStop := make(chan struct{})
	go hub.Run(hubStop)
	go schedule.Every(ctx, viper.GetDuration("monitor.interval"), monitor, logger)
	go schedule.Daily(ctx, risk.NewResetTask(riskSvc), logger)
	if feed != nil {
		go func() {
			if err := monitor.StartFeed(ctx, feed); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("price feed stopped", slog.Any("err", err))
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: viper.GetString("server.addr"), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		close(hubStop)
	}()

	logger.Info("listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

// runBacktest executes the backtest described under the backtest config
// key, prints the headline numbers and, when a gemini key is set, a
// model-written commentary.
func runBacktest(prices market.PriceSource, logger *slog.Logger) {
	params := strategy.Params{}
	for key := range viper.GetStringMap("backtest.params") {
		params[key] = viper.GetFloat64("backtest.params." + key)
	}

	req := backtest.Request{
		Symbol:         viper.GetString("backtest.symbol"),
		Interval:       market.Interval(viper.GetString("backtest.interval")),
		Limit:          viper.GetInt("backtest.limit"),
		Strategy:       viper.GetString("backtest.strategy"),
		Params:         params,
		InitialCapital: decimal.NewFromFloat(viper.GetFloat64("backtest.initial_capital")),
		BrokerId:       viper.GetString("backtest.broker"),
	}

	engine := backtest.NewEngine(prices, broker.NewCatalog(), logger)
	result, err := engine.Run(context.Background(), req)
	if err != nil {
		panic(err)
	}

	fmt.Printf("strategy %s on %s over %d candles\n", result.Strategy, result.Symbol, result.CandleCount)
	fmt.Printf("final equity: %s (%s%%)\n", result.FinalEquity.Round(2), result.Metrics.TotalReturnPercent.Round(2))
	fmt.Printf("trades: %d, win rate: %s%%, max drawdown: %s%%\n",
		result.Metrics.TotalTrades, result.Metrics.WinRate.Round(2), result.Metrics.MaxDrawdownPercent.Round(2))

	if viper.IsSet("llm.gemini.api_key") {
		commentator := backtest.NewCommentator(gemini.NewService(ioc.InitGeminiCli()))
		comment, err := commentator.Comment(context.Background(), result)
		if err != nil {
			logger.Error("backtest commentary", slog.Any("err", err))
			return
		}
		fmt.Println("\n" + comment)
	}
}
