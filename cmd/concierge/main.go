// Command concierge runs the voice assistant's turn pipeline as an
// interactive console session. Each line of input is one caller turn; the
// reply, transfer and hang-up decisions are printed back.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"concierge/pkg/config"
	"concierge/pkg/confirm"
	"concierge/pkg/graph"
	"concierge/pkg/intent"
	"concierge/pkg/llm"
	"concierge/pkg/llm/factory"
	"concierge/pkg/logx"
	"concierge/pkg/metrics"
	"concierge/pkg/persistence"
	"concierge/pkg/proto"
	"concierge/pkg/rag"
	"concierge/pkg/respond"
	"concierge/pkg/tools"
	"concierge/pkg/utils"
)

// Version information - set by goreleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file (built-in defaults when empty)")
		dbPath      = flag.String("db", "", "SQLite database path (overrides config)")
		kbDir       = flag.String("kb", "", "Directory of markdown documents to index at startup")
		tenantID    = flag.String("tenant", "default", "Tenant identifier for this deployment")
		localeFlag  = flag.String("locale", "", "Conversation locale, es or en (overrides config)")
		initSecrets = flag.Bool("init-secrets", false, "Interactively create the encrypted secrets file and exit")
		statsMode   = flag.Bool("stats", false, "Print aggregate pipeline metrics from Prometheus and exit")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("concierge %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	logger := logx.NewLogger("main")

	if *initSecrets {
		if err := runSecretsBootstrap("."); err != nil {
			fmt.Fprintf(os.Stderr, "secrets setup failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	if *statsMode {
		if err := runStats(context.Background(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "stats query failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	locale := proto.Locale(cfg.DefaultLocale)
	if *localeFlag != "" {
		locale = proto.Locale(*localeFlag)
	}
	if !locale.Valid() {
		fmt.Fprintf(os.Stderr, "unsupported locale %q, use es or en\n", locale)
		os.Exit(1)
	}

	secrets, err := loadSecrets(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to unlock secrets: %v\n", err)
		os.Exit(1)
	}

	store, err := persistence.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database %s: %v\n", cfg.Database.Path, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *kbDir != "" {
		if err := indexKnowledge(ctx, store, *tenantID, *kbDir); err != nil {
			fmt.Fprintf(os.Stderr, "failed to index knowledge base: %v\n", err)
			os.Exit(1)
		}
	}

	var client llm.Client
	if cfg.LLM.Provider != "" {
		client, err = factory.FromConfig(cfg, secrets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "llm setup failed: %v\n", err)
			os.Exit(1)
		}
		logger.Info("llm provider %s ready (%s)", cfg.LLM.Provider, client.ModelName())
	} else {
		logger.Info("no llm provider configured, running on templates and keyword routing")
	}

	var fallback llm.Client
	if cfg.Intent.EnableLLMFallback {
		fallback = client
	}

	tokens, err := utils.NewTokenCounter()
	if err != nil {
		logger.Warn("token counter unavailable, using size heuristic: %v", err)
		tokens = nil
	}

	recorder := metrics.NewRecorder()
	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(logger, cfg.Metrics.ListenAddr)
	}

	runner, err := graph.NewRunner(graph.Config{
		Router:      intent.NewRouter(cfg.Intent.ConfidenceThreshold, fallback),
		Retriever:   rag.NewSQLiteRetriever(store),
		Executor:    tools.NewExecutor(tools.DefaultRegistry(), cfg.Tools.ExecutionTimeout, &meteredAudit{store: store, recorder: recorder}),
		Interpreter: confirm.NewInterpreter(),
		Synthesizer: respond.NewSynthesizer(client, tokens, cfg.LLM.HistoryTokenBudget),
		Store:       store,

		RAGMaxResults: cfg.RAG.MaxResults,
		MaxAttempts:   cfg.Confirmation.MaxAttempts,
		Observer:      recorder,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build turn pipeline: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("concierge ready (tenant=%s locale=%s). Type a message, Ctrl-D to quit.\n", *tenantID, locale)
	repl(ctx, runner, *tenantID, locale)
}

// meteredAudit fans tool execution records out to the durable audit log and
// the Prometheus counters.
type meteredAudit struct {
	store    *persistence.Store
	recorder *metrics.Recorder
}

func (m *meteredAudit) RecordToolExecution(ctx context.Context, tenantID, callID, toolName string, params map[string]any, success bool, execErr string) {
	m.store.RecordToolExecution(ctx, tenantID, callID, toolName, params, success, execErr)
	m.recorder.ObserveTool(toolName, success)
}

// repl runs one simulated call: a fresh call ID, turn-by-turn carry-over of
// the pending tool and transcript, until the assistant hangs up or stdin
// closes.
func repl(ctx context.Context, runner *graph.Runner, tenantID string, locale proto.Locale) {
	callID := uuid.NewString()

	var (
		history              []proto.Message
		pendingTool          *proto.PendingTool
		confirmationStatus   = proto.ConfirmationNone
		confirmationAttempts int
	)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		if ctx.Err() != nil {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		state := proto.NewTurnState(callID, tenantID, locale, history, input)
		state.PendingTool = pendingTool
		state.ConfirmationStatus = confirmationStatus
		state.ConfirmationAttempts = confirmationAttempts

		final, out := runner.Run(ctx, state)

		fmt.Println(out.Text)
		if out.ForwardToClient {
			fmt.Println("[call transferred to staff]")
			return
		}
		if out.EndCall {
			fmt.Printf("[call ended: %s]\n", out.EndCallReason)
			return
		}

		history = final.Messages
		pendingTool = final.PendingTool
		confirmationStatus = final.ConfirmationStatus
		confirmationAttempts = final.ConfirmationAttempts
	}
}

// indexKnowledge loads every markdown file in dir into the tenant's
// knowledge base. The first heading becomes the document title; the file
// name is the fallback.
func indexKnowledge(ctx context.Context, store *persistence.Store, tenantID, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read knowledge dir: %w", err)
	}

	indexer := rag.NewIndexer(store)
	var docs []rag.Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		content := string(raw)
		docs = append(docs, rag.Document{
			Title:   documentTitle(content, entry.Name()),
			Content: content,
		})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := indexer.IndexAll(ctx, tenantID, docs); err != nil {
		return err
	}
	fmt.Printf("indexed %d knowledge documents for tenant %s\n", len(docs), tenantID)
	return nil
}

func documentTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSuffix(filename, ".md")
}

func serveMetrics(logger *logx.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving /metrics on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server stopped: %v", err)
	}
}
