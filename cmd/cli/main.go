package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cpl-agent/internal/agent/cpl"
	"github.com/cpl-agent/internal/agent/viral"
	"github.com/cpl-agent/internal/ai"
	"github.com/cpl-agent/internal/browser"
	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/internal/report"
	"github.com/cpl-agent/internal/research"
	"github.com/cpl-agent/internal/research/rss"
	"github.com/cpl-agent/internal/search/factory"
	"github.com/cpl-agent/internal/storage"
	storagefactory "github.com/cpl-agent/internal/storage/factory"
	"github.com/cpl-agent/internal/tracker"
	"github.com/cpl-agent/pkg/logger"
	"github.com/cpl-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	steps   storage.StepStore
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cpl-agent",
		Short: "CPL protocol generator and viral content analyzer",
		Long: `Generates four-video launch (CPL) protocols with Claude and active web search,
and captures screenshots of the most viral posts found during research.`,
		PersistentPreRunE: initializeApp,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if steps != nil {
				return steps.Close()
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(cplCmd())
	rootCmd.AddCommand(viralCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	steps, err = storagefactory.NewStepStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open step storage: %w", err)
	}
	log.Debug().Str("driver", cfg.Storage.Driver).Msg("Step storage ready")

	return nil
}

// ============ SESSION COMMANDS ============

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Create a new session directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := uuid.NewString()
			dir := filepath.Join(cfg.Sessions.Root, sessionID)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			fmt.Println(sessionID)
			return nil
		},
	})
	return cmd
}

// ============ RESEARCH COMMANDS ============

func researchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research data commands",
	}

	cmd.AddCommand(researchCollectCmd())
	return cmd
}

func researchCollectCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch configured RSS feeds into the session research file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cfg.Research.Feeds) == 0 {
				return fmt.Errorf("no research feeds configured")
			}

			limiter := newLimiter()
			manager := research.NewManager()
			for _, src := range rss.NewMultiple(cfg.Research, limiter, log) {
				manager.Register(src)
			}

			n, err := research.Collect(cmd.Context(), manager, cfg.Sessions.Root, sessionID, log)
			if err != nil {
				return err
			}

			fmt.Printf("Collected %d items from %d feeds into %s\n",
				n, len(cfg.Research.Feeds), research.Path(cfg.Sessions.Root, sessionID))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.MarkFlagRequired("session")
	return cmd
}

// ============ CPL COMMANDS ============

// cplInputs holds the JSON documents passed to the generator
type cplInputs struct {
	synthesisFile string
	personaFile   string
	strategicFile string
}

func (in *cplInputs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.synthesisFile, "synthesis", "", "JSON file with the master synthesis")
	cmd.Flags().StringVar(&in.personaFile, "persona", "", "JSON file with the persona")
	cmd.Flags().StringVar(&in.strategicFile, "strategic", "", "JSON file with the strategic context")
}

// load reads the input files and the web data of the session research file
func (in *cplInputs) load(sessionID string) (synthesis, persona, strategic, webData map[string]any, err error) {
	if synthesis, err = readJSONMap(in.synthesisFile); err != nil {
		return
	}
	if persona, err = readJSONMap(in.personaFile); err != nil {
		return
	}
	if strategic, err = readJSONMap(in.strategicFile); err != nil {
		return
	}

	doc, loadErr := research.Load(cfg.Sessions.Root, sessionID)
	switch {
	case loadErr == nil:
		webData = research.Map(doc, models.ResearchWebData)
	case errors.Is(loadErr, os.ErrNotExist):
		log.Info().Str("session_id", sessionID).Msg("No research file, generating without web data")
	default:
		err = loadErr
	}
	return
}

func cplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cpl",
		Short: "CPL protocol commands",
	}

	cmd.AddCommand(cplGenerateCmd())
	cmd.AddCommand(cplFlowCmd())
	cmd.AddCommand(cplValidateCmd())
	return cmd
}

func cplGenerateCmd() *cobra.Command {
	var sessionID string
	var inputs cplInputs

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the CPL protocol of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, err := newGenerator(cmd.Context(), false)
			if err != nil {
				return err
			}

			synthesis, persona, strategic, webData, err := inputs.load(sessionID)
			if err != nil {
				return err
			}

			protocol := generator.Generate(cmd.Context(), sessionID, synthesis, persona, strategic, webData)
			fmt.Printf("Generation status: %s\n", protocol.Status)
			return printJSON(protocol)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.MarkFlagRequired("session")
	inputs.bind(cmd)
	return cmd
}

func cplFlowCmd() *cobra.Command {
	var sessionID string
	var inputs cplInputs

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Run generation, validation and summary, then write the flow report",
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, err := newGenerator(cmd.Context(), true)
			if err != nil {
				return err
			}

			synthesis, persona, strategic, webData, err := inputs.load(sessionID)
			if err != nil {
				return err
			}

			result := generator.RunFullFlow(cmd.Context(), sessionID, synthesis, persona, strategic, webData)

			dir := filepath.Join(cfg.Sessions.Root, sessionID)
			mdPath, _, err := report.Write(dir, report.CPLReportName, "CPL protocol", report.FlowMarkdown(result))
			if err != nil {
				log.Warn().Err(err).Msg("Failed to write flow report")
			}

			fmt.Printf("\n=== CPL Flow ===\n")
			fmt.Printf("Title:       %s\n", result.Summary.ProtocolTitle)
			fmt.Printf("Valid:       %t\n", result.Validation.IsValid)
			fmt.Printf("Phases:      %d\n", result.Summary.TotalPhases)
			fmt.Printf("Bonuses:     %d\n", result.Summary.TotalBonuses)
			fmt.Printf("Guarantees:  %d\n", result.Summary.TotalGuarantees)
			fmt.Printf("Complexity:  %s\n", result.Summary.ComplexityLevel)
			if result.Validation.Error != "" {
				fmt.Printf("Error:       %s\n", result.Validation.Error)
			}
			if mdPath != "" {
				fmt.Printf("Report:      %s\n", mdPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.MarkFlagRequired("session")
	inputs.bind(cmd)
	return cmd
}

func cplValidateCmd() *cobra.Command {
	var sessionID string
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate and summarize a stored or exported protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch {
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read protocol: %w", err)
				}
				data = b
			case sessionID != "":
				step, err := steps.LoadStep(cmd.Context(), sessionID, models.CategoryMainModules, models.StepCPLComplete)
				if err != nil {
					return fmt.Errorf("failed to load protocol of session %s: %w", sessionID, err)
				}
				data = step.Payload
			default:
				return fmt.Errorf("either --session or --file is required")
			}

			protocol, err := models.ParseProtocol(data)
			if err != nil {
				return err
			}

			valid := cpl.Validate(protocol, log)
			fmt.Printf("Structure valid: %t\n", valid)
			return printJSON(cpl.Summarize(protocol))
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringVar(&file, "file", "", "Protocol JSON file")
	return cmd
}

// ============ VIRAL COMMANDS ============

func viralCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viral",
		Short: "Viral content commands",
	}

	cmd.AddCommand(viralAnalyzeCmd())
	cmd.AddCommand(viralReportCmd())
	return cmd
}

func viralAnalyzeCmd() *cobra.Command {
	var sessionID string
	var query string
	var maxCaptures int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Rank the viral posts of a session and capture screenshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := newAnalyzer()
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := analyzer.Analyze(cmd.Context(), query, sessionID, maxCaptures)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Viral Analysis ===\n")
			fmt.Printf("Items Analyzed:    %d\n", result.Summary.TotalSocialItemsAnalyzed)
			fmt.Printf("Viral Found:       %d\n", result.Summary.ViralContentFound)
			fmt.Printf("Screenshots Taken: %d\n", result.Summary.ScreenshotsTaken)
			fmt.Printf("Duration:          %s\n", time.Since(start).Round(time.Second))
			for _, shot := range result.ScreenshotsCaptured {
				fmt.Printf("  - %s [%s] %s\n", shot.Filename, shot.CaptureMethod, shot.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringVar(&query, "query", "", "Search query the research was run for")
	cmd.Flags().IntVar(&maxCaptures, "max-captures", 0, "Maximum screenshots (default from config)")
	cmd.MarkFlagRequired("session")
	return cmd
}

func viralReportCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the viral analysis summary as Markdown and HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Join(cfg.Sessions.Root, sessionID)
			result, err := report.LoadAnalysis(filepath.Join(dir, viral.SummaryFileName))
			if err != nil {
				return err
			}

			// relative_path is relative to the parent of the files root
			linkBase, err := filepath.Rel(dir, filepath.Dir(cfg.Sessions.FilesRoot))
			if err != nil {
				return fmt.Errorf("failed to resolve screenshot links: %w", err)
			}

			mdPath, htmlPath, err := report.Write(dir, report.ViralReportName, "Viral content analysis",
				report.ViralMarkdown(result, filepath.ToSlash(linkBase)))
			if err != nil {
				return err
			}

			fmt.Printf("Markdown: %s\nHTML:     %s\n", mdPath, htmlPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.MarkFlagRequired("session")
	return cmd
}

// ============ WIRING ============

func newLimiter() *ratelimit.MultiLimiter {
	return ratelimit.NewLimiter(ratelimit.Limits{
		AnthropicRequestsPerMinute: cfg.RateLimit.AnthropicRequestsPerMinute,
		SearchRequestsPerMinute:    cfg.RateLimit.SearchRequestsPerMinute,
	})
}

func newGenerator(ctx context.Context, withTracker bool) (*cpl.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	searcher, err := factory.NewSearcher(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	aiClient := ai.NewClient(cfg.Anthropic, newLimiter(), log)
	if searcher != nil {
		aiClient.WithSearcher(searcher, cfg.Search.MaxResults)
	}

	generator := cpl.NewGenerator(aiClient, steps, cfg.Generator, log)

	if withTracker && cfg.Tracker.Enabled {
		t, err := tracker.NewSheetsTracker(ctx, cfg.Tracker, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracker: %w", err)
		}
		if err := t.InitializeSheet(ctx); err != nil {
			log.Warn().Err(err).Msg("Tracker sheet not initialized")
		}
		generator.WithTracker(t)
	}

	return generator, nil
}

func newAnalyzer() (*viral.Analyzer, error) {
	selectors := viral.DefaultSelectors()
	if cfg.Capture.SelectorsFile != "" {
		loaded, err := viral.LoadSelectorSet(cfg.Capture.SelectorsFile)
		if err != nil {
			return nil, err
		}
		selectors = loaded
	}
	log.Debug().Str("version", selectors.Version).Msg("Selector set loaded")

	launcher := browser.NewChromeLauncher(browser.Options{
		ExecPath:     cfg.Capture.ChromePath,
		WindowWidth:  cfg.Capture.WindowWidth,
		WindowHeight: cfg.Capture.WindowHeight,
	}, log)

	analyzer := viral.NewAnalyzer(viral.SettingsFromConfig(cfg), launcher, selectors, log)
	return analyzer.WithStepStore(steps), nil
}

func readJSONMap(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
