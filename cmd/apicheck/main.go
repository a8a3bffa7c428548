package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/probelabs/apicheck/harness"
	"github.com/probelabs/apicheck/transport"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var errScenariosFailed = errors.New("one or more scenarios failed")

func init() {
	// Endpoint and key can live in .env next to the server's own config.
	godotenv.Overload()
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "apicheck",
		Short:         "Conformance checker for OpenAI-compatible chat completion APIs",
		Version:       Version,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.Flags()
	f.String("base-url", "http://localhost:3000", "base URL of the server under test")
	f.String("api-key", "sk-your-secret-api-key-here", "bearer token sent on every call")
	f.String("model", "", "target model identifier (default from built-in options)")
	f.String("backend", transport.BackendRaw, "transport backend: raw or sdk")
	f.Duration("timeout", 30*time.Second, "per-call wall-clock timeout")
	f.StringSlice("scenario", nil, "run only the named scenarios (repeatable)")
	f.String("suite", "", "path to a YAML suite file overriding model and scenarios")
	f.Bool("parallel", false, "run scenarios concurrently")
	f.Bool("verbose", false, "trace raw requests and responses to stderr")

	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("base_url", "base-url")
	bindFlag("api_key", "api-key")
	bindFlag("model", "model")
	bindFlag("backend", "backend")
	bindFlag("timeout", "timeout")
	bindFlag("scenario", "scenario")
	bindFlag("suite", "suite")
	bindFlag("parallel", "parallel")
	bindFlag("verbose", "verbose")

	// APICHECK_BASE_URL, APICHECK_API_KEY, etc.
	viper.SetEnvPrefix("APICHECK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errScenariosFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := transport.Config{
		BaseURL: viper.GetString("base_url"),
		APIKey:  viper.GetString("api_key"),
		Timeout: viper.GetDuration("timeout"),
	}

	opts := harness.DefaultOptions()
	if model := viper.GetString("model"); model != "" {
		opts.Model = model
	}
	scenarioNames := viper.GetStringSlice("scenario")
	if path := viper.GetString("suite"); path != "" {
		suite, err := harness.LoadSuite(path)
		if err != nil {
			return err
		}
		opts = suite.Apply(opts)
		if len(scenarioNames) == 0 {
			scenarioNames = suite.Scenarios
		}
	}
	scenarios, err := harness.Select(scenarioNames)
	if err != nil {
		return err
	}

	var tracer transport.Tracer
	if viper.GetBool("verbose") {
		tracer = transport.NewWriterTracer(os.Stderr)
	}
	client, err := transport.New(viper.GetString("backend"), cfg, tracer)
	if err != nil {
		return err
	}

	fmt.Printf("apicheck %s\n", Version)
	fmt.Printf("  Base URL: %s\n", cfg.BaseURL)
	fmt.Printf("  Model:    %s\n", opts.Model)
	fmt.Printf("  Backend:  %s\n", viper.GetString("backend"))
	fmt.Println()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := harness.NewRunner(client, opts, scenarios)
	runner.Parallel = viper.GetBool("parallel")
	runner.Progress = func(res harness.Result) {
		fmt.Println(harness.Marker(res))
	}

	results, runErr := runner.Run(ctx)

	report := &harness.Report{}
	report.Add(results...)
	fmt.Println()
	report.Render(os.Stdout)

	if runErr != nil {
		// Interrupted runs still print whatever summary was available,
		// but never exit zero.
		fmt.Fprintln(os.Stderr, "\n⚠️  run interrupted before all scenarios completed")
		return errScenariosFailed
	}
	if !report.AllPassed() {
		return errScenariosFailed
	}
	return nil
}
