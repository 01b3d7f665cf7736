package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"quizimages"
)

func main() {
	cfg := quizimages.ConfigFromEnv()

	var (
		quizFile   = flag.String("quiz", "", "Quiz JSON file (required)")
		subject    = flag.String("subject", "", "Subject label (required)")
		chapter    = flag.String("chapter", "", "Chapter or context for the prompt")
		provider   = flag.String("provider", cfg.Provider, "AI provider: gemini or openai")
		batchSize  = flag.Int("batch", cfg.BatchSize, "Questions per brief batch")
		policyOnly = flag.Bool("policy-only", false, "Only run the image policy gate, no AI calls")
		outputFile = flag.String("output", "", "Write briefs as JSON to this file")
		verbose    = flag.Bool("verbose", cfg.Verbose, "Enable verbose output")
	)

	flag.Parse()

	quizimages.SetVerbose(*verbose)

	if *quizFile == "" || *subject == "" {
		log.Fatal("Quiz file and subject are required. Use -quiz and -subject flags.")
	}

	doc, err := quizimages.LoadQuiz(*quizFile)
	if err != nil {
		log.Fatalf("Failed to load quiz: %v", err)
	}

	if *policyOnly {
		printPolicies(doc, *subject)
		return
	}

	cfg.Provider = strings.ToLower(*provider)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
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

	fmt.Printf("Generating briefs for %d questions with %s...\n\n", len(doc.Questions), gen.Name())
	previews := quizimages.PreviewBriefs(ctx, ai, doc, *subject, *chapter, *batchSize)

	for _, p := range previews {
		fmt.Printf("%s [%s] %s\n", p.QuestionID, p.Policy, p.Text)
		switch {
		case p.Error != "":
			fmt.Printf("  error: %s\n", p.Error)
		case p.Brief != nil:
			b := p.Brief
			marker := ""
			if b.Repaired {
				marker = " (repaired)"
			}
			fmt.Printf("  intent: %s, risk: %s, threshold: %d%s\n", b.ImageIntent, b.RiskProfile, p.Threshold, marker)
			for _, q := range b.CommonsQueries {
				fmt.Printf("  query: %s\n", q)
			}
			if len(b.CategoryHints) > 0 {
				fmt.Printf("  categories: %s\n", strings.Join(b.CategoryHints, ", "))
			}
			if b.WikipediaFallback != "" {
				fmt.Printf("  wikipedia: %s\n", b.WikipediaFallback)
			}
		}
		fmt.Println()
	}

	if *outputFile != "" {
		out, err := json.MarshalIndent(previews, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal briefs: %v", err)
		}
		if err := os.WriteFile(*outputFile, out, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Briefs saved to: %s", *outputFile)
	}
}

func printPolicies(doc *quizimages.QuizDocument, subject string) {
	counts := map[quizimages.ImagePolicy]int{}
	for _, q := range doc.Questions {
		policy := quizimages.ImagePolicyFor(q, subject)
		counts[policy]++
		image := ""
		if q.HasImage() {
			image = " (has image)"
		}
		fmt.Printf("%-8s %-9s %s%s\n", q.ID, policy, q.Text, image)
	}
	fmt.Printf("\nrequired: %d, optional: %d, none: %d\n",
		counts[quizimages.PolicyRequired], counts[quizimages.PolicyOptional], counts[quizimages.PolicyNone])
}
