package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/ppiankov/attrib/internal/embed"
	"github.com/ppiankov/attrib/internal/explain"
	"github.com/ppiankov/attrib/internal/model"
	"github.com/ppiankov/attrib/internal/source"
	"github.com/ppiankov/attrib/internal/util"
	"github.com/ppiankov/attrib/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// engineFlags are the context and matching flags shared by attribute and batch
type engineFlags struct {
	sources    source.Sources
	threshold  float64
	embeddings bool
	noTokenize bool
	provider   string
	model      string
	noCache    bool
	noColor    bool
	timeout    time.Duration
}

func (f *engineFlags) register(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&f.sources.Files, "context", "c", nil, "context text file, as path or name=path (repeatable)")
	flags.StringArrayVar(&f.sources.URLs, "context-url", nil, "context web page, as url or name=url (repeatable)")
	flags.StringArrayVar(&f.sources.Bundles, "context-json", nil, "JSON bundle of [source_name, text] pairs (repeatable)")

	flags.Float64Var(&f.threshold, "threshold", 50, "minimum similarity score (0-100) for a match")
	flags.BoolVar(&f.embeddings, "embeddings", false, "match by embedding cosine similarity instead of fuzzy matching")
	flags.BoolVar(&f.noTokenize, "no-tokenize", false, "keep plain-text context whole instead of splitting it into sentences")
	flags.StringVar(&f.provider, "provider", "ollama", "embedding provider (ollama, openai, hash)")
	flags.StringVar(&f.model, "model", "", "embedding model name (default: provider default)")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the embedding vector cache")
	flags.BoolVar(&f.noColor, "no-color", false, "disable colour in the verbose trace")
	flags.DurationVar(&f.timeout, "timeout", 5*time.Minute, "overall timeout, including embedding model load")
}

// config loads the merged configuration with this command's flags applied
func (f *engineFlags) config(cmd *cobra.Command) (*model.Config, error) {
	err := bindFlags(cmd.Flags(), map[string]string{
		"threshold":  "attribution.threshold",
		"embeddings": "attribution.use_embeddings",
		"provider":   "embedding.provider",
		"model":      "embedding.model",
	})
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Negated flags cannot be bound directly
	if cmd.Flags().Changed("no-tokenize") {
		cfg.Attribution.TokenizeContext = !f.noTokenize
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.Cache.Enabled = !f.noCache
	}
	if cmd.Flags().Changed("no-color") {
		cfg.Output.Color = !f.noColor
	}

	return cfg, nil
}

// session is a ready-to-use engine loaded with the invocation's context
type session struct {
	engine *explain.Engine
	loaded int // context entries read
	stored int // new sentences stored
}

// newSession builds the engine, loads every context source and ingests it.
// The embedding backend, when enabled, warms up while sources are fetched.
func newSession(ctx context.Context, cfg *model.Config, sources source.Sources, trace io.Writer) (*session, error) {
	if sources.Empty() {
		return nil, fmt.Errorf("%w: no context given (use --context, --context-url or --context-json)", model.ErrEmptyContext)
	}

	opts := []explain.Option{
		explain.WithTrace(trace),
		explain.WithColor(cfg.Output.Color),
	}
	if cfg.Attribution.UseEmbeddings {
		loader := embed.NewLoader(embed.ConfigFromModel(cfg))
		opts = append(opts, explain.WithEmbeddings(loader, cfg.Embedding.LoadTimeout))
	}

	engine, err := explain.New(cfg.Attribution, opts...)
	if err != nil {
		return nil, err
	}

	entries, err := contextLoader(cfg).Load(ctx, sources)
	if err != nil {
		engine.Shutdown()
		return nil, fmt.Errorf("load context: %w", err)
	}

	stored, err := engine.Ingest(ctx, entries)
	if err != nil {
		engine.Shutdown()
		return nil, fmt.Errorf("ingest context: %w", err)
	}

	return &session{engine: engine, loaded: len(entries), stored: stored}, nil
}

// contextLoader wires the page fetcher with the shared HTTP client, per-host
// rate limiting and, if enabled, robots.txt checks
func contextLoader(cfg *model.Config) *source.Loader {
	httpClient := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	var robots *source.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = source.NewRobotsChecker(httpClient, cfg.HTTP.UserAgent)
	}

	fetcher := source.NewFetcher(httpClient, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, limiter, robots)
	return source.NewLoader(fetcher)
}

// signalContext is cancelled on SIGINT/SIGTERM or after timeout (0 = none)
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

var (
	attrFlags  engineFlags
	outJSON    string
	answerJSON bool
)

// attributeCmd represents the attribute command
var attributeCmd = &cobra.Command{
	Use:   "attribute [response | -]",
	Short: "Attribute one response to the given context",
	Long: `Attribute splits a generated response into sentences and links each one
to the context sentence that supports it best:
- Load context from text files, web pages and JSON bundles
- Match every response segment (fuzzy or embedding similarity)
- Insert [n] reference markers after supported segments
- Print the annotated response and the JSON explanation

The response is read from the argument, or from stdin when it is "-" or
omitted.

Example:
  attrib attribute "Availability was 87% this week." -c kpi=docs/kpi.txt
  attrib attribute - --context-json context.json < answer.txt
  attrib attribute "..." --context-url https://example.com/glossary --embeddings --provider openai
  attrib attribute "..." -c notes.txt --json attribution.json --answer`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttribute,
}

func init() {
	rootCmd.AddCommand(attributeCmd)

	attrFlags.register(attributeCmd.Flags())
	attributeCmd.Flags().StringVar(&outJSON, "json", "", "also write the full attribution as JSON to this path")
	attributeCmd.Flags().BoolVar(&answerJSON, "answer", false, "print the chat answer payload (textResponse/textExplanation) as JSON")
}

func runAttribute(cmd *cobra.Command, args []string) error {
	response, err := readResponse(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := attrFlags.config(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(attrFlags.timeout)
	defer cancel()

	s, err := newSession(ctx, cfg, attrFlags.sources, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.engine.Shutdown()

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Context: %d entries, %d sentences (%s matching)\n\n", s.loaded, s.engine.Len(), s.engine.Strategy())
	}

	attribution, err := s.engine.Attribute(ctx, response)
	if err != nil {
		return fmt.Errorf("attribute response: %w", err)
	}

	if outJSON != "" {
		if err := writeJSON(outJSON, attribution); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Attribution written to %s\n", outJSON)
		}
	}

	if answerJSON {
		return printJSON(cmd.OutOrStdout(), attribution.Answer())
	}

	printAttribution(cmd.OutOrStdout(), attribution, cfg.Output.Color)
	return nil
}

// readResponse takes the response from the argument, or stdin for "-" or none
func readResponse(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read response from stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: nothing on stdin", model.ErrEmptyResponse)
	}

	return string(data), nil
}

// printAttribution prints the annotated response followed by the explanation
func printAttribution(w io.Writer, a *model.Attribution, colored bool) {
	heading := color.New(color.Bold, color.FgCyan)
	if !colored {
		heading.DisableColor()
	}

	heading.Fprintln(w, "Text Response:")
	fmt.Fprintln(w, a.Text)
	fmt.Fprintln(w)
	heading.Fprintln(w, "Text Explanation (JSON):")
	fmt.Fprintln(w, a.Explanation)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func writeJSON(path string, v interface{}) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return printJSON(f, v)
}
