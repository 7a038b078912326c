package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/chatgpt"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/config"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/extraction"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/services"
	"github.com/Ayash-Bera/webgpt-analyzer/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	file    = flag.String("file", "", "Analyze a saved conversation document (\"-\" reads stdin)")
	pageURL = flag.String("page-url", "", "Conversation page URL to fetch, e.g. https://chatgpt.com/c/<id>")
	cookie  = flag.String("cookie", "", "Cookie header of a logged-in browser session (defaults to $CHATGPT_SESSION_COOKIE)")
	scope   = flag.String("scope", "", "Used results scope: all_turns or final_turn (defaults to config)")
	pretty  = flag.Bool("pretty", true, "Indent the JSON output")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	timeout = flag.Duration("timeout", 0, "Overall deadline for the run, e.g. 90s (0 means none; the HTTP client timeout still applies)")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && *verbose {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	utils.SetLevel(cfg.Log.Level)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	opts := cfg.ExtractionOptions()
	if *scope != "" {
		if opts.UsedResultsScope, err = extraction.ParseUsedResultsScope(*scope); err != nil {
			logger.WithError(err).Fatal("Invalid -scope")
		}
	}

	if (*file == "") == (*pageURL == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -page-url is required")
		flag.Usage()
		os.Exit(2)
	}

	client := chatgpt.NewClient(cfg.ChatGPT.BaseURL, cfg.ChatGPT.UserAgent, cfg.ChatGPT.Timeout, logger)
	svc := services.NewAnalysisService(
		chatgpt.NewFetcher(client, logger),
		extraction.NewEngine(opts, logger),
		nil,
		logger,
	)

	ctx, cancel := runContext(context.Background(), *timeout)
	defer cancel()

	var resp *models.AnalyzeResponse
	if *file != "" {
		raw, err := readInput(*file)
		if err != nil {
			logger.WithError(err).Fatal("Failed to read document")
		}
		resp, err = svc.AnalyzeDocument(ctx, raw, "cli")
		if err != nil {
			logger.WithError(err).Fatal("Analysis failed")
		}
	} else {
		sessionCookie := *cookie
		if sessionCookie == "" {
			sessionCookie = os.Getenv("CHATGPT_SESSION_COOKIE")
		}
		resp, err = svc.AnalyzePage(ctx, models.AnalyzeRequest{PageURL: *pageURL, SessionCookie: sessionCookie}, "cli")
		if err != nil {
			// The fetch error message is the user-facing one.
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(resp.Result); err != nil {
		logger.WithError(err).Fatal("Failed to write result")
	}
}

// runContext applies the -timeout deadline; zero or negative means no deadline.
func runContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
