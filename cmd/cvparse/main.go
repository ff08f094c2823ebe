package main

// Run the extraction pipeline on a local file without the HTTP server:
//   go run ./cmd/cvparse -file cv.pdf
//   go run ./cmd/cvparse -file cv.docx -ai -out profile.json
//   go run ./cmd/cvparse -file cv.docx -markdown

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cv-ingest/internal/aiparse"
	"cv-ingest/internal/cv"
	"cv-ingest/internal/cvtext"
	"cv-ingest/internal/extract"
	openai "cv-ingest/internal/llm/openai"
	"cv-ingest/internal/shared/config"
)

func main() {
	cfg := config.MustLoad()

	filePath := flag.String("file", "", "Path to CV file (pdf or docx)")
	useAI := flag.Bool("ai", false, "Call the LLM provider and merge its profile with the heuristics")
	markdown := flag.Bool("markdown", false, "Print the markdown rendering instead of the profile")
	outPath := flag.String("out", "", "Path to write output (optional)")
	model := flag.String("model", cfg.LLM.Model, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}

	ctx := context.Background()
	raw, err := extract.FromFile(ctx, *filePath)
	if err != nil {
		exitErr(fmt.Sprintf("extract text: %v", err))
	}
	text := cvtext.Normalize(raw)

	if *markdown {
		writeOutput([]byte(cvtext.ToMarkdown(text)+"\n"), *outPath)
		return
	}

	sections := cvtext.Segment(text)
	profile := cv.FromHeuristics(
		cvtext.ExtractContact(text),
		sections,
		cvtext.ExtractKeywords(text),
		cvtext.ComputeMetadata(text, sections),
	)

	if *useAI {
		client, err := openai.NewClient(openai.Options{
			APIKey:  cfg.LLM.APIKey,
			Model:   *model,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			exitErr(err.Error())
		}
		parser := aiparse.NewParser(client, aiparse.Options{
			Model:         *model,
			MaxInputChars: cfg.AI.MaxInputChars,
			Policy:        aiparse.Policy{MaxAttempts: cfg.AI.MaxAttempts, BaseDelay: cfg.AI.BaseDelay},
		})
		ai, err := parser.Parse(ctx, text)
		if err != nil {
			exitErr(fmt.Sprintf("ai parse: %v", err))
		}
		profile = cv.Merge(ai, &profile)
	} else {
		profile = cv.Merge(nil, &profile)
	}

	pretty, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	writeOutput(append(pretty, '\n'), *outPath)
}

func writeOutput(b []byte, outPath string) {
	if outPath != "" {
		if err := os.WriteFile(outPath, b, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(b); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
