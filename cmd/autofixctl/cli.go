package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/config"
	"github.com/codehealer/autofix-engine/internal/controller"
	"github.com/codehealer/autofix-engine/internal/executor"
	"github.com/codehealer/autofix-engine/internal/llmclient"
	"github.com/codehealer/autofix-engine/internal/memory"
)

// CLI mirrors cli.go's struct: a logger, a cobra root command, and the
// resolved configuration loaded once in PersistentPreRun.
type CLI struct {
	logger  *logrus.Logger
	rootCmd *cobra.Command
	cfg     config.Config
}

// NewCLI builds the root command and registers every subcommand.
func NewCLI() *CLI {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	c := &CLI{logger: logger}
	c.setupRootCommand()
	c.setupCommands()
	return c
}

// Execute runs the CLI.
func (c *CLI) Execute() error {
	return c.rootCmd.Execute()
}

func (c *CLI) setupRootCommand() {
	c.rootCmd = &cobra.Command{
		Use:   "autofixctl",
		Short: "Iterative Go code repair engine",
		Long: `autofixctl runs broken Go source through the iteration controller:
classify the failure, pick a structured or generative fix, validate it in a
sandbox, and repeat until the program compiles and runs clean or the
iteration budget is exhausted.`,
		Version: "1.0.0",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.setupLogging(cmd)
			envFile, _ := cmd.Flags().GetString("env-file")
			tomlFile, _ := cmd.Flags().GetString("config")
			c.cfg = config.Load(envFile, tomlFile)
		},
	}

	c.rootCmd.PersistentFlags().String("config", "", "TOML configuration file path")
	c.rootCmd.PersistentFlags().String("env-file", ".autofix.env", "Environment file path")
	c.rootCmd.PersistentFlags().String("backend", "yaegi", "Executor backend (yaegi, subprocess, dagger)")
	c.rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	c.rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")
}

func (c *CLI) setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFormat, _ := cmd.Flags().GetString("log-format")

	level := logrus.InfoLevel
	if verbose {
		level = logrus.DebugLevel
	}
	c.logger.SetLevel(level)

	switch logFormat {
	case "text":
		c.logger.SetFormatter(&logrus.TextFormatter{})
	default:
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func (c *CLI) setupCommands() {
	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a Go source file once in the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runRun,
	}

	repairCmd := &cobra.Command{
		Use:   "repair [file]",
		Short: "Run the full iteration controller against a broken Go source file",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runRepair,
	}
	repairCmd.Flags().String("prompt", "", "Natural-language fix instructions")
	repairCmd.Flags().Int("max-iterations", 0, "Iteration budget (0 = use configured default)")
	repairCmd.Flags().Bool("publish", false, "Open a GitHub pull request on success")
	repairCmd.Flags().String("report-dir", "reports", "Directory to write the iteration report JSON into")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the repair engine over HTTP",
		RunE:  c.runServe,
	}
	serveCmd.Flags().Bool("mcp", false, "Also serve an MCP tool server over stdio")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	configInitCmd := &cobra.Command{Use: "init", Short: "Write a default configuration file", RunE: c.runConfigInit}
	configShowCmd := &cobra.Command{Use: "show", Short: "Show the resolved configuration", RunE: c.runConfigShow}
	configValidateCmd := &cobra.Command{Use: "validate", Short: "Validate the resolved configuration", RunE: c.runConfigValidate}
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Test engine connectivity",
	}
	testConnectionCmd := &cobra.Command{Use: "connection", Short: "Verify the sandbox executor and LLM backend are reachable", RunE: c.runTestConnection}
	testCmd.AddCommand(testConnectionCmd)

	c.rootCmd.AddCommand(runCmd, repairCmd, serveCmd, configCmd, testCmd)
}

// newExecutor selects an Executor backend by name, matching the --backend
// persistent flag; yaegi is the default for a reason analogous to
// test_engine.go's container-per-run cost: it is the cheapest to spin up.
func newExecutor(backend string) (autofix.Executor, error) {
	switch backend {
	case "", "yaegi":
		return executor.NewYaegiExecutor(), nil
	case "subprocess":
		return executor.NewSubprocessExecutor(""), nil
	case "dagger":
		return executor.NewDaggerExecutor(nil), nil
	default:
		return nil, fmt.Errorf("unknown executor backend %q", backend)
	}
}

func newLLM(cfg config.Config) *llmclient.Client {
	return llmclient.New(llmclient.Provider(cfg.ModelBackend), os.Getenv(apiKeyEnvFor(cfg.ModelBackend)), cfg.ModelName, nil)
}

func apiKeyEnvFor(backend string) string {
	switch backend {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "deepseek":
		return "DEEPSEEK_API_KEY"
	case "litellm":
		return "LITELLM_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// buildController resolves the --backend flag once and returns both the
// Executor and the Controller built on top of it, so callers that need the
// raw Executor too (serve, run) don't construct a second one.
func (c *CLI) buildController(cmd *cobra.Command) (*controller.Controller, autofix.Executor, error) {
	backend, _ := cmd.Flags().GetString("backend")
	exec, err := newExecutor(backend)
	if err != nil {
		return nil, nil, err
	}

	llm := newLLM(c.cfg)

	ctrl := controller.New(exec, llm).
		WithSandboxTimeout(c.cfg.SandboxTimeout).
		WithMaxTokens(c.cfg.ModelMaxTokens).
		WithLogger(c.logger).
		WithCircuitBreaker(5, 30*time.Second)

	if c.cfg.FixMemoryPath != "" {
		if mem, err := memory.Open(c.cfg.FixMemoryPath); err == nil {
			ctrl = ctrl.WithMemory(mem)
		} else {
			c.logger.WithError(err).Warn("fix memory unavailable, continuing without it")
		}
	}

	return ctrl, exec, nil
}
