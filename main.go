package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/adapters/datasource/factory"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/config"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/llm"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/schema"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/services"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/vectorstore"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting sqlbuddy-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("driver", cfg.Database.Driver),
		zap.String("provider", cfg.LLM.Provider))

	introspector, runner, err := factory.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open datasource: %w", err)
	}
	defer runner.Close()

	generator, embedder, err := llm.NewFromConfig(&cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create llm clients: %w", err)
	}

	splitter := vectorstore.NewSplitter(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	store := vectorstore.NewStore(embedder, splitter, cfg.Index.Path, logger)

	// Index the schema up front so the first question does not pay the
	// embedding cost. A persisted index short-circuits this unless a rebuild
	// was forced.
	builder := schema.NewBuilder(introspector, cfg.Index.IncludeSamples, cfg.Pipeline.SampleRowLimit, logger)
	store.SetDocumentLoader(builder.BuildDocuments)
	docs, err := builder.BuildDocuments(ctx)
	if err != nil {
		return fmt.Errorf("build schema documents: %w", err)
	}
	if err := store.Build(ctx, docs, cfg.Index.ForceRebuild); err != nil {
		return fmt.Errorf("build vector index: %w", err)
	}

	conversation := services.NewConversationStore(cfg.Pipeline.MaxHistory, logger)
	assistant := services.NewAssistant(
		services.NewSQLGenerator(generator, store, cfg.Index.TopK, cfg.LLM.SQLTemperature, logger),
		services.NewSafeExecutor(runner, cfg.Pipeline.RowLimit, logger),
		services.NewInsightGenerator(generator, cfg.LLM.InsightTemperature, logger),
		conversation,
		logger,
	)

	logger.Info("ready", zap.Int("indexed_chunks", store.Count()))
	return repl(ctx, os.Stdin, assistant, logger)
}

func repl(ctx context.Context, in io.Reader, assistant *services.Assistant, logger *zap.Logger) error {
	fmt.Println("Ask questions about your database. Commands: :clear, :stats, :optimize <sql>, :quit")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Reading through a channel lets an interrupt take effect while the
	// scanner is blocked waiting for the next line.
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("> ")
		var (
			text string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case text, ok = <-lines:
			if !ok {
				return scanner.Err()
			}
		}

		line := strings.TrimSpace(text)
		if line == "" {
			continue
		}

		switch {
		case line == ":quit" || line == ":exit":
			return nil

		case line == ":clear":
			assistant.ClearConversation()
			fmt.Println("Conversation cleared.")

		case line == ":stats":
			printSummary(assistant)

		case strings.HasPrefix(line, ":optimize "):
			sqlQuery := strings.TrimSpace(strings.TrimPrefix(line, ":optimize "))
			suggestions, err := assistant.OptimizationSuggestions(ctx, sqlQuery)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Println(suggestions)

		default:
			exchange, err := assistant.ProcessQuery(ctx, line)
			if err != nil {
				logger.Error("query failed", zap.Error(err))
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("\nSQL:\n%s\n", exchange.SQL)
			if exchange.Explanation != "" {
				fmt.Printf("\nExplanation:\n%s\n", exchange.Explanation)
			}
			fmt.Printf("\nResults:\n%s\n", exchange.ResultsSummary)
			fmt.Printf("\nInsights:\n%s\n\n", exchange.Insights)
		}
	}
}

func printSummary(assistant *services.Assistant) {
	summary := assistant.Summary()
	fmt.Printf("Queries: %d  Successful: %d  Success rate: %.0f%%  Rows returned: %d\n",
		summary.TotalQueries,
		summary.SuccessfulQueries,
		summary.SuccessRate*100,
		summary.TotalRowsReturned)

	if recent := assistant.RecentActivity(3); recent != "" {
		fmt.Printf("\nRecent activity:\n%s\n", recent)
	}
}
