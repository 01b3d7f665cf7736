package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"quizimages"
)

func main() {
	cfg := quizimages.ConfigFromEnv()

	var (
		quizFile       = flag.String("quiz", "", "Quiz JSON file (required)")
		subject        = flag.String("subject", "", "Subject label, e.g. biologie (required)")
		chapter        = flag.String("chapter", "", "Chapter or context for the prompts")
		provider       = flag.String("provider", cfg.Provider, "AI provider: gemini or openai (or set AI_PROVIDER)")
		apiKey         = flag.String("api-key", "", "API key for the selected provider (or set GEMINI_API_KEY / OPENAI_API_KEY)")
		batchSize      = flag.Int("batch", cfg.BatchSize, "Questions per brief batch (max 12)")
		maxEscalations = flag.Int("max-escalations", cfg.MaxEscalations, "Escalation budget per run")
		replaceAll     = flag.Bool("replace-all", false, "Reprocess questions that already have an image")
		apply          = flag.Bool("apply", false, "Write selected images back into the quiz file")
		limit          = flag.Int("limit", 0, "Process at most N eligible questions (0 = all)")
		dryRun         = flag.Bool("dry-run", false, "Only print the policy and brief for each question")
		docxFile       = flag.String("docx", "", "Also write a .docx review document")
		dbDSN          = flag.String("db", cfg.DBDSN, "Database DSN for cache and run history (empty disables)")
		dbDriver       = flag.String("db-driver", cfg.DBDriver, "Database driver: sqlite3 or pgx")
		logDir         = flag.String("log-dir", ".", "Directory for the log/<run>.log AI transcript (empty disables)")
		verbose        = flag.Bool("verbose", cfg.Verbose, "Enable verbose debugging output")
	)

	flag.Parse()

	quizimages.SetVerbose(*verbose)

	if *quizFile == "" {
		log.Fatal("Quiz file is required. Use -quiz flag.")
	}
	if *subject == "" {
		log.Fatal("Subject is required. Use -subject flag.")
	}

	cfg.Provider = strings.ToLower(*provider)
	if *apiKey != "" {
		if cfg.Provider == quizimages.ProviderOpenAI {
			cfg.OpenAIAPIKey = *apiKey
		} else {
			cfg.GeminiAPIKey = *apiKey
		}
	}
	cfg.BatchSize = *batchSize
	cfg.MaxEscalations = *maxEscalations
	cfg.DBDriver = *dbDriver
	cfg.DBDSN = *dbDSN

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	doc, err := quizimages.LoadQuiz(*quizFile)
	if err != nil {
		log.Fatalf("Failed to load quiz: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	gen, err := quizimages.NewGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	if closer, ok := gen.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ai := &quizimages.AICaller{
		Generator: gen,
		Retrier:   quizimages.NewRetrier(),
		Pacer:     quizimages.NewPacer(cfg.AIDelay),
	}
	ai.Retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Printf("Rate limited, retry %d in %s: %v", attempt, delay.Round(time.Millisecond), err)
	}

	if *dryRun {
		previews := quizimages.PreviewBriefs(ctx, ai, doc, *subject, *chapter, cfg.BatchSize)
		out, err := json.MarshalIndent(previews, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal briefs: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	var searcher quizimages.ImageSearcher = quizimages.NewCommonsClient(cfg.CommonsUserAgent)
	var store *quizimages.Store
	if cfg.DBDSN != "" {
		store, err = quizimages.OpenStore(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		if n, err := store.PurgeSearchCache(ctx, cfg.CacheTTL); err != nil {
			log.Printf("Failed to purge search cache: %v", err)
		} else if n > 0 {
			quizimages.VerboseLog("Purged %d stale cache entries", n)
		}
		searcher = quizimages.NewCachedSearcher(searcher, store, cfg.CacheTTL)
	}

	collector := quizimages.NewCollector(
		searcher,
		quizimages.NewWikipediaClient(cfg.WikipediaLang, cfg.CommonsUserAgent),
		quizimages.NewPacer(cfg.SearchDelay),
	)

	pipeline := quizimages.NewPipeline(ai, collector)
	pipeline.BatchSize = cfg.BatchSize
	pipeline.MaxEscalations = cfg.MaxEscalations
	pipeline.BatchDelay = cfg.BatchDelay
	pipeline.LogDir = *logDir
	if store != nil {
		pipeline.Recorder = store
	}

	if *verbose {
		log.Printf("Provider: %s, batch size %d, escalation budget %d", gen.Name(), cfg.EffectiveBatchSize(), cfg.MaxEscalations)
	}

	report, err := pipeline.Run(ctx, quizimages.RunRequest{
		Quiz:         doc,
		Subject:      *subject,
		Chapter:      *chapter,
		ReplaceAll:   *replaceAll,
		ApplyChanges: *apply,
		Limit:        *limit,
	})
	if err != nil && report == nil {
		log.Fatalf("Run failed: %v", err)
	}
	if err != nil {
		log.Printf("Run finished with error: %v", err)
	}

	reportPath := quizimages.ReportPath(*quizFile)
	if err := quizimages.WriteReport(reportPath, report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	log.Printf("Report saved to: %s", reportPath)

	if *docxFile != "" {
		if err := quizimages.WriteReviewDocx(*docxFile, report); err != nil {
			log.Fatalf("Failed to write review document: %v", err)
		}
		log.Printf("Review document saved to: %s", *docxFile)
	}

	s := report.Summary
	fmt.Printf("%d/%d questions illustrated (%d failed, %d optional missed, %d skipped, %d escalations)\n",
		s.Succeeded, s.Processed, s.Failed, s.OptionalMissed, s.Skipped, s.Escalations)
}
