package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	decisionapp "github.com/wyfcoding/exenlending/internal/decision/application"
	decisiondomain "github.com/wyfcoding/exenlending/internal/decision/domain"
	decisionmsg "github.com/wyfcoding/exenlending/internal/decision/infrastructure/messaging"
	decisionhttp "github.com/wyfcoding/exenlending/internal/decision/interfaces/http"
	lendingapp "github.com/wyfcoding/exenlending/internal/lending/application"
	lendingdomain "github.com/wyfcoding/exenlending/internal/lending/domain"
	lendingmsg "github.com/wyfcoding/exenlending/internal/lending/infrastructure/messaging"
	lendingmemory "github.com/wyfcoding/exenlending/internal/lending/infrastructure/persistence/memory"
	lendingmysql "github.com/wyfcoding/exenlending/internal/lending/infrastructure/persistence/mysql"
	lendinghttp "github.com/wyfcoding/exenlending/internal/lending/interfaces/http"
	scoringapp "github.com/wyfcoding/exenlending/internal/scoring/application"
	scoringhttp "github.com/wyfcoding/exenlending/internal/scoring/interfaces/http"
	treasuryapp "github.com/wyfcoding/exenlending/internal/treasury/application"
	treasuryhttp "github.com/wyfcoding/exenlending/internal/treasury/interfaces/http"
	walletapp "github.com/wyfcoding/exenlending/internal/wallet/application"
	walletmemory "github.com/wyfcoding/exenlending/internal/wallet/infrastructure/persistence/memory"
	wallethttp "github.com/wyfcoding/exenlending/internal/wallet/interfaces/http"
	"github.com/wyfcoding/exenlending/pkg/config"
	"github.com/wyfcoding/exenlending/pkg/idgen"
	"github.com/wyfcoding/exenlending/pkg/logger"
	"github.com/wyfcoding/exenlending/pkg/metrics"
	"github.com/wyfcoding/exenlending/pkg/middleware"
	"github.com/wyfcoding/exenlending/pkg/mq"
)

var configPath = flag.String("config", "configs/lending/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	log := slog.Default()

	// 3. 指标
	m := metrics.New(cfg.ServiceName)

	// 4. 决策引擎阈值
	decisionCfg, err := buildDecisionConfig(cfg.Decision)
	if err != nil {
		log.Error("invalid decision config", "error", err)
		os.Exit(1)
	}

	// 5. Kafka（brokers 为空时事件发布降级为 no-op）
	var (
		decisionPublisher decisiondomain.EventPublisher = decisionmsg.NopEventPublisher{}
		loanPublisher     lendingdomain.EventPublisher  = lendingmsg.NopEventPublisher{}
		producer          *mq.KafkaProducer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		decisionPublisher = decisionmsg.NewKafkaEventPublisher(producer, cfg.Kafka.DecisionTopic)
		loanPublisher = lendingmsg.NewKafkaEventPublisher(producer, cfg.Kafka.LoanTopic)
	}

	// 6. 仓储
	var loanRepo lendingdomain.LoanRepository
	if cfg.Database.Enabled {
		db, err := openDatabase(cfg.Database)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		loanRepo, err = lendingmysql.NewLoanRepository(db)
		if err != nil {
			log.Error("failed to init loan repository", "error", err)
			os.Exit(1)
		}
	} else {
		loanRepo = lendingmemory.NewLoanRepository()
	}
	walletRepo := walletmemory.NewWalletRepository()

	// 7. 资金池与托管金库
	openingBalance, err := decimal.NewFromString(cfg.Pool.OpeningBalance)
	if err != nil {
		log.Error("invalid pool opening balance", "value", cfg.Pool.OpeningBalance, "error", err)
		os.Exit(1)
	}
	pool := lendingdomain.NewLendingPool(cfg.Pool.Address, openingBalance)
	vault := lendingdomain.NewEscrowVault("VAULT_" + cfg.Pool.Address)

	// 8. 应用服务
	gen := idgen.NewRandom()
	walletSvc := walletapp.NewWalletService(walletRepo, log)
	scoringSvc := scoringapp.NewScoringService(walletSvc, log)
	decisionSvc := decisionapp.NewDecisionService(decisiondomain.NewEngine(decisionCfg), decisionPublisher, gen, m, log)
	lendingSvc := lendingapp.NewLoanLedgerService(loanRepo, vault, pool, loanPublisher, gen, m, log)
	treasurySvc := treasuryapp.NewTreasuryService(lendingSvc, log)

	// 9. 接口层
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging(), middleware.Metrics(m))

	api := r.Group("/api/v1")
	wallethttp.NewHandler(walletSvc).RegisterRoutes(api)
	scoringhttp.NewScoringHandler(scoringSvc).RegisterRoutes(api)
	decisionhttp.NewDecisionHandler(decisionSvc).RegisterRoutes(api)
	lendinghttp.NewLendingHandler(lendingSvc).RegisterRoutes(api)
	treasuryhttp.NewTreasuryHandler(treasurySvc).RegisterRoutes(api)

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 10. 启动
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildDecisionConfig(c config.DecisionConfig) (decisiondomain.Config, error) {
	cfg := decisiondomain.DefaultConfig()
	cfg.MinTransactions = c.MinTransactions

	for _, field := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"base_ltv", c.BaseLTV, &cfg.BaseLTV},
		{"min_credit_score", c.MinCreditScore, &cfg.MinCreditScore},
		{"min_success_rate", c.MinSuccessRate, &cfg.MinSuccessRate},
		{"max_loan_usd", c.MaxLoanUSD, &cfg.MaxLoanUSD},
		{"min_loan_usd", c.MinLoanUSD, &cfg.MinLoanUSD},
	} {
		d, err := decimal.NewFromString(field.value)
		if err != nil {
			return decisiondomain.Config{}, fmt.Errorf("invalid decision.%s %q: %w", field.name, field.value, err)
		}
		*field.dst = d
	}
	return cfg, nil
}

func openDatabase(c config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(c.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetime) * time.Second)

	return db, nil
}
