// Command clausesmith drafts contract clauses grounded in an indexed corpus.
//
//	clausesmith [-config file] serve
//	clausesmith [-config file] index [-watch] [-rebuild] [-dir corpus]
//	clausesmith [-config file] draft "<intent>"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/0xcro3dile/clausesmith/internal/adapters/assessor"
	"github.com/0xcro3dile/clausesmith/internal/adapters/embedding"
	"github.com/0xcro3dile/clausesmith/internal/adapters/filewatcher"
	"github.com/0xcro3dile/clausesmith/internal/adapters/llm"
	"github.com/0xcro3dile/clausesmith/internal/adapters/loader"
	"github.com/0xcro3dile/clausesmith/internal/adapters/parser"
	"github.com/0xcro3dile/clausesmith/internal/adapters/vectordb"
	"github.com/0xcro3dile/clausesmith/internal/config"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
	"github.com/0xcro3dile/clausesmith/internal/domain/risk"
	"github.com/0xcro3dile/clausesmith/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/clausesmith/internal/infrastructure/http"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to YAML config")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "serve":
		err = runServe(ctx, cfg)
	case "index":
		err = runIndex(ctx, cfg, args)
	case "draft":
		err = runDraft(ctx, cfg, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[ERROR] %s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: clausesmith [-config file] <serve | index [-watch] [-rebuild] [-dir corpus] | draft \"<intent>\">\n")
	flag.PrintDefaults()
}

// app holds the adapters shared by every subcommand.
type app struct {
	embedder ports.EmbeddingService
	llm      ports.LLMService
	store    vectordb.Store
}

func newApp(cfg config.Config) (*app, error) {
	var (
		a   app
		err error
	)

	switch cfg.Provider.Name {
	case config.ProviderOpenAI:
		a.embedder, err = embedding.NewOpenAIAdapter(cfg.Provider.OpenAIAPIKey, cfg.Provider.OpenAIBaseURL, cfg.Provider.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		a.llm, err = llm.NewOpenAIAdapter(llm.Settings{
			Model:       cfg.Provider.ChatModel,
			APIKey:      cfg.Provider.OpenAIAPIKey,
			BaseURL:     cfg.Provider.OpenAIBaseURL,
			Temperature: cfg.Provider.Temperature,
		})
		if err != nil {
			return nil, err
		}
	default:
		a.embedder = embedding.NewOllamaAdapter(cfg.Provider.OllamaURL, cfg.Provider.EmbeddingModel)
		a.llm = llm.NewOllamaLLMAdapter(cfg.Provider.OllamaURL, cfg.Provider.ChatModel).
			WithTemperature(cfg.Provider.Temperature)
	}
	log.Printf("[INFO] Provider %s (chat %s, embeddings %s)", cfg.Provider.Name, cfg.Provider.ChatModel, cfg.Provider.EmbeddingModel)

	a.store, err = vectordb.Open(cfg.Index.Backend, cfg.Index.DataPath)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	log.Printf("[INFO] Index backend %s", cfg.Index.Backend)
	return &a, nil
}

// ingester builds the index builder, bringing up the PDF sidecar when one
// is configured. The returned cleanup stops the sidecar.
func (a *app) ingester(ctx context.Context, cfg config.Config) (*usecases.IngestUseCase, *loader.MultiLoader, func(), error) {
	cleanup := func() {}

	var pdf ports.DocumentParser
	pdfParser := parser.NewPythonPDFParser(cfg.PDFParser.URL)
	switch {
	case cfg.PDFParser.Script != "":
		stop, err := pdfParser.StartService(ctx, cfg.PDFParser.Script)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = stop
		pdf = pdfParser
	case pdfParser.IsServiceHealthy(ctx):
		pdf = pdfParser
	default:
		log.Printf("[WARN] PDF parser unavailable at %s; indexing text files only", cfg.PDFParser.URL)
	}

	docLoader := loader.NewMultiLoader(pdf)
	ingest := usecases.NewIngestUseCase(a.embedder, a.store, docLoader, cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	return ingest, docLoader, cleanup, nil
}

// loadMemoryIndex fills a non-persistent index from the corpus so serve and
// draft have something to retrieve from.
func (a *app) loadMemoryIndex(ctx context.Context, cfg config.Config) error {
	if vectordb.Persistent(cfg.Index.Backend) {
		return nil
	}
	ingest, _, cleanup, err := a.ingester(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	docs, chunks, err := ingest.IngestDir(ctx, cfg.Index.CorpusDir)
	if err != nil {
		return err
	}
	log.Printf("[OK] Loaded %d documents (%d passages) into memory from %s", docs, chunks, cfg.Index.CorpusDir)
	return nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] closing index: %v", err)
	}
}

func (a *app) evaluator(cfg config.Config) (*usecases.EvaluateUseCase, error) {
	rules := risk.DefaultRules()
	if cfg.Drafting.RulesFile != "" {
		var err error
		if rules, err = risk.LoadRules(cfg.Drafting.RulesFile); err != nil {
			return nil, err
		}
	}
	keywords, err := risk.NewKeywordAssessor(rules)
	if err != nil {
		return nil, err
	}

	var riskAssessor ports.RiskAssessor = keywords
	if cfg.Drafting.Assessor == config.AssessorModel {
		riskAssessor = assessor.NewModelAssessor(a.llm)
	}

	uc := usecases.NewEvaluateUseCase(
		usecases.NewRetrieveUseCase(a.embedder, a.store),
		usecases.NewGenerateUseCase(a.llm),
		riskAssessor,
		keywords,
		usecases.EvaluateOptions{
			TopK:          cfg.Drafting.TopK,
			AttemptBudget: cfg.AttemptBudget(),
		},
	)
	log.Printf("[INFO] Drafting with %s assessor, %d attempt budget", cfg.Drafting.Assessor, uc.AttemptBudget())
	return uc, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.loadMemoryIndex(ctx, cfg); err != nil {
		return err
	}
	evaluate, err := a.evaluator(cfg)
	if err != nil {
		return err
	}

	if n, err := a.store.Count(ctx); err == nil && n == 0 {
		log.Printf("[WARN] Index is empty; run `clausesmith index` or check %s", cfg.Index.CorpusDir)
	}

	srv := httpserver.NewServer(evaluate, usecases.NewSummarizeUseCase(a.llm), a.store, httpserver.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	})
	return srv.Start(ctx)
}

func runIndex(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	watch := fs.Bool("watch", false, "keep watching the corpus directory for changes")
	rebuild := fs.Bool("rebuild", false, "clear the index before ingesting")
	dir := fs.String("dir", cfg.Index.CorpusDir, "corpus directory")
	fs.Parse(args)

	if !vectordb.Persistent(cfg.Index.Backend) {
		log.Printf("[WARN] Index backend %s does not persist; serve and draft load the corpus themselves", cfg.Index.Backend)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ingest, docLoader, cleanup, err := a.ingester(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var docs, chunks int
	if *rebuild {
		docs, chunks, err = ingest.Rebuild(ctx, *dir)
	} else {
		docs, chunks, err = ingest.IngestDir(ctx, *dir)
	}
	if err != nil {
		return err
	}
	log.Printf("[OK] Indexed %d documents (%d passages) from %s", docs, chunks, *dir)

	if !*watch {
		return nil
	}

	var watcher ports.FileWatcher
	watcher, err = filewatcher.NewFSNotifyWatcher(docLoader.SupportedExtensions())
	if err != nil {
		return err
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, *dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", *dir, err)
	}
	log.Printf("[INFO] Watching %s for changes", *dir)
	ingest.Sync(ctx, events)
	return nil
}

func runDraft(ctx context.Context, cfg config.Config, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.loadMemoryIndex(ctx, cfg); err != nil {
		return err
	}
	evaluate, err := a.evaluator(cfg)
	if err != nil {
		return err
	}

	if cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer cancel()
	}

	eval, err := evaluate.Evaluate(ctx, prompt)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"clause":           eval.Clause,
		"risk":             eval.Risk,
		"classification":   eval.Category,
		"source":           eval.SourceID,
		"feedback_options": eval.FeedbackOptions,
		"attempts":         eval.Attempts,
		"reasoning":        eval.Reasoning,
	})
}
