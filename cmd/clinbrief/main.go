package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"clinbrief/internal/audit"
	"clinbrief/internal/collect"
	"clinbrief/internal/config"
	"clinbrief/internal/database"
	"clinbrief/internal/llm"
	"clinbrief/internal/pipeline"
	"clinbrief/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "clinbrief",
	Short:   "AI in Clinical Research briefs",
	Long:    "clinbrief collects, screens, classifies, and ranks news about AI in clinical research into a daily brief.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("clinbrief", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/clinbrief/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, search queries, and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		lastRun, _ := db.GetLastRunDate()
		if lastRun == "" {
			lastRun = "never"
		}

		fmt.Printf("Today: %s\n", today())
		fmt.Printf("Last run: %s\n\n", lastRun)
		fmt.Println("Articles:")
		fmt.Printf("  Total collected: %d\n", stats.TotalArticles)
		fmt.Printf("  Classified: %d\n", stats.ClassifiedArticles)
		fmt.Printf("  Relevant: %d\n", stats.RelevantArticles)
		fmt.Println("\nOutput:")
		fmt.Printf("  Briefs: %d\n", stats.Briefs)
		fmt.Printf("  Days with data: %d\n", stats.RunsWithArticles)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect candidates from configured sources without classifying",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		auditLog, err := openAuditLog()
		if err != nil {
			return err
		}
		defer auditLog.Close()

		fmt.Println("Collecting candidates from sources...")
		collector := collect.New(cfg, auditLog, cfg.Window.DaysBack)
		result := collector.Collect(context.Background())

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  Unique candidates: %d\n", len(result.Candidates))
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		fmt.Printf("  Sources failed: %d\n", result.Failures)

		if len(result.Sources) > 0 {
			fmt.Println("\nCandidates by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> enrich -> screen -> classify -> rank -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runDate := today()
		effectiveDaysBack := cfg.Window.DaysBack
		if daysBack > 0 {
			effectiveDaysBack = daysBack
		}

		if dryRun {
			pipe := pipeline.New(cfg, db, nil, audit.Discard())
			printSteps(pipe.DryRun(runDate))
			return nil
		}

		auditLog, err := openAuditLog()
		if err != nil {
			return err
		}
		defer auditLog.Close()

		provider := llm.CreateProvider(
			cfg.Classification.Provider,
			cfg.Classification.Model,
			cfg.Classification.OllamaURL,
			cfg.Classification.OpenAIModel,
			cfg.Classification.APIKeyEnv,
		)
		if provider == nil {
			return fmt.Errorf("no LLM provider available: check Ollama is running or set %s", cfg.Classification.APIKeyEnv)
		}

		pipe := pipeline.New(cfg, db, provider, auditLog)
		printSteps(pipe.Run(context.Background(), runDate, effectiveDaysBack))

		fmt.Println("\nPipeline complete! Run 'clinbrief serve' to browse the brief.")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "clinbrief.db"))
}

func openAuditLog() (*audit.Logger, error) {
	path := filepath.Join(cfg.LogsPath(), today()+".ndjson")
	return audit.Open(path)
}
