// Package main is the sentembed CLI entry point.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/sentembed/internal/cli"
	"github.com/hyperjump/sentembed/internal/client"
	"github.com/hyperjump/sentembed/internal/config"
	"github.com/hyperjump/sentembed/internal/embedding"
	"github.com/hyperjump/sentembed/internal/metrics"
	"github.com/hyperjump/sentembed/internal/server"
	"github.com/hyperjump/sentembed/internal/service"
	"github.com/hyperjump/sentembed/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultServerURL = "http://localhost:8001"

// resolveConfigPath returns path when set. Otherwise it uses config.yaml from the current
// directory if one exists (for development), or "" to run on defaults and PORT alone.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			return fallback
		}
	}
	return ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "embed":
		runEmbed()
	case "health":
		runHealth()
	case "version", "--version", "-v":
		fmt.Printf("sentembed version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: ./config.yaml if present)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	resolvedConfigPath := resolveConfigPath(*configPath)
	cfg, err := config.Load(resolvedConfigPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
	)

	// The model is loaded once, before the listener opens; failure is fatal.
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		logger.Fatal("Failed to load embedding model", zap.Error(err))
	}
	defer embedder.Close()
	logger.Info("embedding model loaded",
		zap.String("model", embedder.Model()),
		zap.Int("dimensions", embedder.Dimensions()),
	)

	m := metrics.New()
	svc := service.NewService(embedder, cfg.Embedding.MaxBatchSize,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
	srv := server.NewServer(svc, &cfg.Server, logger, m)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
		return
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// parseInterleaved parses fs while letting flags appear between texts. Go's flag
// package stops at the first non-flag argument, so parsing resumes after each text.
// Texts are returned in the order given; everything after "--" is a text.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	texts := []string{}
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		consumed := len(args) - len(rest)
		if consumed > 0 && args[consumed-1] == "--" {
			return append(texts, rest...), nil
		}
		if len(rest) == 0 {
			return texts, nil
		}
		texts = append(texts, rest[0])
		args = rest[1:]
	}
}

// readTexts returns one text per line of r, keeping blank lines so positions line up.
// A trailing newline does not produce an extra text.
func readTexts(r io.Reader) ([]string, error) {
	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)
	for scanner.Scan() {
		texts = append(texts, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

func runEmbed() {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	stdin := fs.Bool("stdin", false, "read texts from stdin, one per line")
	batchSize := fs.Int("batch-size", client.DefaultBatchSize, "texts per request (max 100)")
	preview := fs.Int("preview", 4, "vector values to show in text output")
	texts, err := parseInterleaved(fs, os.Args[2:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *stdin {
		texts, err = readTexts(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read stdin: %v\n", err)
			os.Exit(1)
		}
	}
	if len(texts) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: sentembed embed [flags] <text>... (or --stdin)")
		os.Exit(1)
	}

	c := client.New(*serverURL)
	vectors, err := c.EmbedAll(context.Background(), texts, *batchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embed failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteVectors(os.Stdout, texts, vectors, format, *preview); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h, err := client.New(*serverURL).Health(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHealth(os.Stdout, h, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sentembed - Sentence embedding HTTP service

Usage:
  sentembed server [flags]          Start the HTTP server
  sentembed embed [flags] <text>... Embed texts via a running server
  sentembed health [flags]          Check a running server
  sentembed version                 Show version
  sentembed help                    Show this help

Server Flags:
  --config string    Config file path (default: ./config.yaml if present, else built-in defaults)
  --debug            Enable debug logging

Embed Flags:
  --server string    Server URL (default: http://localhost:8001)
  --output string    Output format: text or json (default: text)
  --stdin            Read texts from stdin, one per line
  --batch-size int   Texts per request, at most 100 (default: 100)
  --preview int      Vector values shown in text output (default: 4)

Health Flags:
  --server string    Server URL (default: http://localhost:8001)
  --output string    Output format: text or json (default: text)

Environment:
  PORT               Listening port (default: 8001)
  OPENAI_API_KEY     API key for the openai provider when embedding.api_key is unset

Examples:
  sentembed server
  PORT=9000 sentembed server --config ./config.yaml
  sentembed embed "hello world" "second text"
  cat chunks.txt | sentembed embed --stdin --output json
  sentembed health`)
}
