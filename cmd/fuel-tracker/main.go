package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/lwshanbd/fuel-tracker/internal/extraction"
	"github.com/lwshanbd/fuel-tracker/internal/scanning"
	"github.com/lwshanbd/fuel-tracker/internal/stats"
	"github.com/lwshanbd/fuel-tracker/internal/vault"
	"github.com/lwshanbd/fuel-tracker/internal/webui"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("fuel-tracker")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "fuel-tracker.db", "Credential vault file path")
		ocrURL         = fs.StringLong("ocr-url", "http://localhost:8884", "Tesseract OCR server base URL")
		ocrLang        = fs.StringLong("ocr-lang", "eng", "OCR languages, comma separated")
		anthropicURL   = fs.StringLong("anthropic-url", "", "Anthropic API base URL (default https://api.anthropic.com)")
		anthropicModel = fs.StringLong("anthropic-model", "claude-3-5-haiku-latest", "Anthropic model name")
		openaiURL      = fs.StringLong("openai-url", "", "OpenAI API base URL (default https://api.openai.com)")
		openaiModel    = fs.StringLong("openai-model", "gpt-4o-mini", "OpenAI model name")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FUEL_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize credential vault
	slog.Info("Initializing credential vault...")
	store, err := vault.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize credential vault", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize text extractor
	languages := strings.Split(*ocrLang, ",")
	slog.Info("Initializing OCR extractor...", "url", *ocrURL, "languages", languages)
	extractor := extraction.NewTesseractExtractor(*ocrURL, languages)

	// Provider preference order: the first configured provider wins.
	providers := []scanning.Provider{
		{ID: scanning.ProviderAnthropic, Client: scanning.NewAnthropic(*anthropicURL, *anthropicModel)},
		{ID: scanning.ProviderOpenAI, Client: scanning.NewOpenAI(*openaiURL, *openaiModel)},
		{ID: scanning.ProviderGemini, Client: scanning.NewGemini(*geminiModel)},
	}
	service := scanning.NewService(store, providers...)

	tracker := stats.NewTracker()

	providerInfos := make([]webui.ProviderInfo, 0, len(providers))
	for _, p := range providers {
		providerInfos = append(providerInfos, webui.ProviderInfo{ID: p.ID, Label: p.Client.Name()})
	}

	basicAuth := webui.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := webui.NewServer(store, extractor, service, tracker, providerInfos, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
