package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/joho/godotenv"
	_ "github.com/viant/afsc/s3"

	"github.com/tanimon/multimodal-rag-chatbot/schema"
	"github.com/tanimon/multimodal-rag-chatbot/service"
)

func main() {
	_ = godotenv.Load()
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "index":
		indexCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: ragingest <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  index   Crawl the configured roots and index the documents")
	fmt.Fprintln(os.Stderr, "  search  Query the index and print the hydrated documents")
}

func indexCmd(args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := flags.String("config", "config.yaml", "config yaml path")
	refresh := flags.Bool("refresh", false, "wipe both stores and rebuild the index")
	forceCreate := flags.Bool("force-create", false, "create the index when missing")
	verbose := flags.Bool("verbose", false, "debug logging")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newService(*configPath, *verbose)
	defer func() { _ = svc.Close() }()

	ids, err := svc.Ingest(ctx, *refresh, *forceCreate)
	if err != nil {
		log.Fatalf("index: %v", err)
	}
	fmt.Printf("indexed %d documents\n", len(ids))
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := flags.String("config", "config.yaml", "config yaml path")
	query := flags.String("query", "", "search query (required)")
	verbose := flags.Bool("verbose", false, "debug logging")
	flags.Parse(args)

	if *query == "" {
		log.Fatal("search: --query is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newService(*configPath, *verbose)
	defer func() { _ = svc.Close() }()

	documents, err := svc.Query(ctx, *query)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	for i, document := range documents {
		printDocument(i, document)
	}
}

func newService(configPath string, verbose bool) *service.Service {
	cfg, err := service.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	svc, err := service.New(cfg, service.WithLogger(logger))
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

func printDocument(i int, document schema.Document) {
	fmt.Printf("--- hit %d [%s]\n", i+1, document.Metadata.Modality())
	switch meta := document.Metadata.(type) {
	case schema.TextMetadata:
		fmt.Printf("url: %s\ntitle: %s\n", meta.URL, meta.Title)
	case schema.ImageMetadata:
		fmt.Printf("url: %s\nmime: %s\n", meta.URL, meta.MimeType)
	}
	fmt.Println(document.PageContent)
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
