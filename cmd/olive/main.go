package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/mgomes/obslive/internal/cohere"
	"github.com/mgomes/obslive/internal/config"
	"github.com/mgomes/obslive/internal/indexer"
	"github.com/mgomes/obslive/internal/live"
	"github.com/mgomes/obslive/internal/search"
	"github.com/mgomes/obslive/internal/store"
	"github.com/mgomes/obslive/internal/tui"
)

func main() {
	query := flag.String("q", "", "open the search screen with this query")
	doIndex := flag.Bool("index", false, "index the obsidian vault")
	fullReindex := flag.Bool("full", false, "full reindex (use with -index)")
	doWatch := flag.Bool("watch", false, "re-index changed notes while searching")
	demo := flag.Bool("demo", false, "search a simulated backend instead of the vault")
	debug := flag.Bool("debug", false, "write debug records to the log file")
	vault := flag.String("vault", "", "obsidian vault directory")
	apiKey := flag.String("key", "", "cohere API key")
	save := flag.Bool("save", false, "save -vault and -key to the config file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := resolveConfig(cfg, overrides{vault: *vault, apiKey: *apiKey, save: *save}, saveConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLog(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *demo {
		fetcher := search.NewDemoFetcher(cfg.Demo.Failure(), cfg.Demo.MaxDelay(), nil)
		if err := runLive(ctx, cfg, logger, fetcher, nil, *query); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.CohereAPIKey == "" || cfg.ObsidianDir == "" {
		printUsage()
		fmt.Fprintln(os.Stderr, "A Cohere API key and a vault directory are required: olive -key KEY -vault DIR -save")
		os.Exit(1)
	}

	dbPath, err := config.DBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get database path: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(dbPath, cfg.EmbedDim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close() //nolint:errcheck

	client := cohere.NewClient(cfg.CohereAPIKey, cfg.EmbedModel, cfg.RerankModel, cfg.EmbedDim)
	idx := indexer.New(st, client, cfg.ObsidianDir, logger)

	if *doIndex {
		if err := runIndex(ctx, idx, st, *fullReindex); err != nil {
			fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	searcher := search.New(st, client, client, cfg.ResultLimit)
	var watched *indexer.Indexer
	if *doWatch {
		watched = idx
	}
	if err := runLive(ctx, cfg, logger, searcher, watched, *query); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
}

type overrides struct {
	vault  string
	apiKey string
	save   bool
}

// resolveConfig applies the flag overrides and persists them when asked.
// COHERE_API_KEY is applied afterwards so a key that only lives in the
// environment never ends up in the config file. An explicit -key wins.
func resolveConfig(cfg *config.Config, o overrides, persist func(*config.Config) error) error {
	if o.vault != "" {
		cfg.ObsidianDir = o.vault
	}
	if o.apiKey != "" {
		cfg.CohereAPIKey = o.apiKey
	}
	if o.save {
		if err := persist(cfg); err != nil {
			return err
		}
		fmt.Println("Config saved.")
	}
	if o.apiKey == "" {
		cfg.ApplyEnv()
	}
	return nil
}

func saveConfig(cfg *config.Config) error {
	if cfg.CohereAPIKey != "" {
		client := cohere.NewClient(cfg.CohereAPIKey, cfg.EmbedModel, cfg.RerankModel, cfg.EmbedDim)
		if err := client.Ping(context.Background()); err != nil {
			return err
		}
	}
	return cfg.Save()
}

func openLog(debug bool) (*slog.Logger, func() error, error) {
	path, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f.Close, nil
}

func runIndex(ctx context.Context, idx *indexer.Indexer, st *store.Store, full bool) error {
	progress := func(p indexer.Progress) {
		if p.Total > 0 {
			msg := p.Message
			if len(msg) > 60 {
				msg = msg[:57] + "..."
			}
			fmt.Printf("\r\033[K[%d/%d] %s", p.Current, p.Total, msg)
		} else if p.Message != "" {
			fmt.Println(p.Message)
		}
	}

	sum, err := idx.Index(ctx, full, progress)
	if err != nil {
		return err
	}
	fmt.Println()

	stats, err := st.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d notes (%d chunks), removed %d\n", sum.Indexed, sum.Chunks, sum.Removed)
	fmt.Printf("Index holds %d documents, %d chunks\n", stats.Documents, stats.Chunks)
	return nil
}

// runLive runs the search screen until the user quits. A non-empty query is
// searched right away. With a non-nil indexer the vault is watched and every
// re-index refreshes the search.
func runLive(ctx context.Context, cfg *config.Config, logger *slog.Logger, fetcher live.Fetcher[search.Result], idx *indexer.Indexer, query string) error {
	coord := live.New[search.Result](fetcher,
		live.WithWindows(cfg.Debounce.Windows()),
		live.WithLogger(logger),
	)
	teardown, err := coord.Start()
	if err != nil {
		return err
	}
	defer teardown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(coord, cfg.ObsidianDir, query), tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	})

	if idx != nil {
		watcher, err := indexer.NewWatcher(idx, func(paths []string) {
			logger.Info("vault changed", "paths", paths)
			coord.Refresh()
			program.Send(tui.VaultChangedMsg{Paths: paths})
		})
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			err := watcher.Run(gctx)
			if err != nil {
				program.Quit()
			}
			return err
		})
	}

	return g.Wait()
}

func printUsage() {
	fmt.Println("obslive - live search for your Obsidian vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  olive                     Search your vault as you type")
	fmt.Println("  olive -watch              Search and re-index notes as they change")
	fmt.Println("  olive -q \"query\"          Open the search screen with a query")
	fmt.Println("  olive -demo               Try the search screen against a simulated backend")
	fmt.Println("  olive -index [-full]      Index your vault")
	fmt.Println("  olive -key K -vault D -save   Store credentials and vault location")
	fmt.Println()
}
