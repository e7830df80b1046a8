package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noknok06/stock-dialy-sub000/internal/analysis"
	"github.com/noknok06/stock-dialy-sub000/internal/companies"
	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/edinet"
	"github.com/noknok06/stock-dialy-sub000/internal/extract"
	"github.com/noknok06/stock-dialy-sub000/internal/finance"
	"github.com/noknok06/stock-dialy-sub000/internal/insights"
	"github.com/noknok06/stock-dialy-sub000/internal/llm"
	openai "github.com/noknok06/stock-dialy-sub000/internal/llm/openai"
	"github.com/noknok06/stock-dialy-sub000/internal/sentiment"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/config"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/server"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/storage/db"
)

// App holds shared dependencies for the API server.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	DocumentsRepo disclosures.Repo
	BatchRepo     disclosures.BatchRepo
	CompaniesRepo companies.Repo
	FinanceRepo   finance.Repo
	SessionsRepo  analysis.Repo

	Edinet          *edinet.Client
	Extractor       *extract.Extractor
	Sentiment       *sentiment.Analyzer
	Insights        *insights.Generator
	AnalysisService *analysis.Service

	AnalysisHandler *analysis.Handler
	DocumentHandler *disclosures.Handler
	CompanyHandler  *companies.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		DocumentHandler: app.DocumentHandler,
		CompanyHandler:  app.CompanyHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.DocumentsRepo = &disclosures.PGRepo{DB: app.DB}
		app.BatchRepo = &disclosures.PGBatchRepo{DB: app.DB}
		app.CompaniesRepo = &companies.PGRepo{DB: app.DB}
		app.FinanceRepo = finance.NewPGRepo(app.DB)
		app.SessionsRepo = analysis.NewPGRepo(app.DB)
	} else {
		app.DocumentsRepo = disclosures.NewMemoryRepo()
		app.BatchRepo = disclosures.NewMemoryBatchRepo()
		app.CompaniesRepo = companies.NewMemoryRepo()
		app.FinanceRepo = finance.NewMemoryRepo()
		app.SessionsRepo = analysis.NewMemoryRepo()
	}

	app.Edinet = edinet.NewClient(edinet.Options{
		BaseURL:     cfg.EdinetBaseURL,
		APIKey:      cfg.EdinetAPIKey,
		UserAgent:   cfg.EdinetUserAgent,
		MinInterval: cfg.EdinetMinInterval,
		MaxAttempts: cfg.EdinetRetryCount,
		Timeout:     cfg.EdinetTimeout,
	})
	app.Extractor = extract.NewExtractor()
	app.Sentiment = sentiment.New(sentiment.LoadDictionary(cfg.SentimentDictPath), sentiment.Options{
		PositiveMin:   cfg.SentimentPositiveMin,
		NegativeMax:   cfg.SentimentNegativeMax,
		OccurrenceCap: cfg.SentimentOccurrenceCap,
	})

	llmClient := llm.Client(llm.PlaceholderClient{})
	if cfg.LLMProvider == "openai" && strings.TrimSpace(cfg.LLMAPIKey) != "" {
		openaiClient, err := openai.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}
	app.Insights = insights.NewGenerator(llmClient)

	app.AnalysisService = &analysis.Service{
		Repo:             app.SessionsRepo,
		DocRepo:          app.DocumentsRepo,
		FinanceRepo:      app.FinanceRepo,
		Fetcher:          app.Edinet,
		Extractor:        app.Extractor,
		Sentiment:        app.Sentiment,
		Insights:         app.Insights,
		TTLSentiment:     cfg.SessionTTLSentiment,
		TTLComprehensive: cfg.SessionTTLComprehensive,
		ReuseWindow:      cfg.SessionReuseWindow,
	}

	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService)
	app.DocumentHandler = disclosures.NewHandler(app.DocumentsRepo)
	app.CompanyHandler = companies.NewHandler(app.CompaniesRepo)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
