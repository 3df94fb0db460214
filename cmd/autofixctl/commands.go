package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/controller"
	"github.com/codehealer/autofix-engine/internal/delivery"
	"github.com/codehealer/autofix-engine/internal/errtax"
	"github.com/codehealer/autofix-engine/internal/httpapi"
	"github.com/codehealer/autofix-engine/internal/mcpserver"
	"github.com/codehealer/autofix-engine/internal/report"
)

func (c *CLI) runRun(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[0])
	if err != nil {
		return err
	}

	backend, _ := cmd.Flags().GetString("backend")
	exec, err := newExecutor(backend)
	if err != nil {
		return err
	}

	ctx := context.Background()
	stdout, stderr, err := exec.Run(ctx, src, "go", c.cfg.SandboxTimeout)
	if err != nil {
		return fmt.Errorf("sandbox run failed: %w", err)
	}

	kind, fullErr := errtax.ParseError(autofix.DiagnosticText(stderr), src)
	fmt.Printf("\n=== Run Result ===\n")
	fmt.Printf("Error Kind: %s\n", kind)
	fmt.Printf("Stdout:\n%s\n", stdout)
	if fullErr != "" {
		fmt.Printf("Stderr:\n%s\n", fullErr)
	}
	return nil
}

func (c *CLI) runRepair(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[0])
	if err != nil {
		return err
	}

	prompt, _ := cmd.Flags().GetString("prompt")
	maxIterations, _ := cmd.Flags().GetInt("max-iterations")
	if maxIterations <= 0 {
		maxIterations = c.cfg.MaxIterations
	}
	if _, err := safecast.Conv[int32](maxIterations); err != nil {
		return fmt.Errorf("--max-iterations out of range: %w", err)
	}
	publish, _ := cmd.Flags().GetBool("publish")
	reportDir, _ := cmd.Flags().GetString("report-dir")

	ctrl, _, err := c.buildController(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result := ctrl.Run(ctx, src, prompt, maxIterations)
	result.Report.RunID = uuid.NewString()

	report.PrintSummary(result.Report)

	store := report.NewFileReportStore(reportDir)
	if path, err := store.Save(result.Report); err != nil {
		c.logger.WithError(err).Warn("failed to persist iteration report")
	} else {
		c.logger.WithField("path", path).Info("iteration report written")
	}

	if publish && result.FinalStatus == autofix.StatusSuccess {
		if err := c.publishFix(ctx, result); err != nil {
			c.logger.WithError(err).Error("failed to publish pull request")
		}
	}

	if result.FinalStatus != autofix.StatusSuccess {
		return fmt.Errorf("repair did not converge after %d iterations", result.Report.TotalIterations)
	}
	return nil
}

func (c *CLI) publishFix(ctx context.Context, result controller.Result) error {
	if c.cfg.GitHubToken == "" || c.cfg.RepoOwner == "" || c.cfg.RepoName == "" {
		return fmt.Errorf("--publish requires GITHUB_TOKEN, REPO_OWNER, and REPO_NAME to be configured")
	}

	d, err := delivery.New(ctx, c.cfg.GitHubToken, c.cfg.RepoOwner, c.cfg.RepoName, c.cfg.TargetBranch, "", c.logger)
	if err != nil {
		return err
	}

	pr, err := d.Publish(ctx, result.Report, result.FinalSource)
	if err != nil {
		return err
	}

	c.logger.WithFields(map[string]interface{}{"pr_number": pr.Number, "url": pr.URL}).Info("opened pull request")
	return nil
}

func (c *CLI) runServe(cmd *cobra.Command, args []string) error {
	ctrl, exec, err := c.buildController(cmd)
	if err != nil {
		return err
	}

	srv := httpapi.New(exec, ctrl, c.cfg.JWTKey, c.logger)
	c.logger.WithField("addr", c.cfg.HTTPAddr).Info("serving autofix HTTP API")

	shutdown := newGracefulShutdown()
	httpSrv := &http.Server{Addr: c.cfg.HTTPAddr, Handler: srv.Router()}
	shutdown.addShutdownFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	})

	if c.mcpEnabled(cmd) {
		mcpCtx, cancelMCP := context.WithCancel(context.Background())
		shutdown.addShutdownFunc(func() error {
			cancelMCP()
			return nil
		})
		go func() {
			mcpSrv := mcpserver.New(ctrl, exec, c.logger)
			if err := mcpSrv.Serve(mcpCtx); err != nil && mcpCtx.Err() == nil {
				c.logger.WithError(err).Error("mcp server exited")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		c.logger.Info("shutdown signal received, draining connections")
		if err := shutdown.run(); err != nil {
			c.logger.WithError(err).Error("error during graceful shutdown")
		}
	}()

	if err := httpListenAndServe(httpSrv); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (c *CLI) mcpEnabled(cmd *cobra.Command) bool {
	enabled, _ := cmd.Flags().GetBool("mcp")
	return enabled
}

func (c *CLI) runConfigInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Parent().Parent().PersistentFlags().GetString("env-file")
	if configFile == "" {
		configFile = ".autofix.env"
	}
	return writeDefaultEnvFile(configFile)
}

func (c *CLI) runConfigShow(cmd *cobra.Command, args []string) error {
	printConfig(c.cfg)
	return nil
}

func (c *CLI) runConfigValidate(cmd *cobra.Command, args []string) error {
	if c.cfg.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive")
	}
	if c.cfg.SandboxTimeout <= 0 {
		return fmt.Errorf("sandbox timeout must be positive")
	}
	c.logger.Info("configuration is valid")
	return nil
}

func (c *CLI) runTestConnection(cmd *cobra.Command, args []string) error {
	backend, _ := cmd.Flags().GetString("backend")
	exec, err := newExecutor(backend)
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, stderr, err := exec.Run(ctx, autofix.Source("package main\n\nfunc main() {}\n"), "go", c.cfg.SandboxTimeout)
	if err != nil {
		return fmt.Errorf("executor unreachable: %w", err)
	}
	if stderr != "" {
		return fmt.Errorf("executor produced unexpected stderr on a trivial program: %s", stderr)
	}

	c.logger.Info("sandbox executor is reachable")
	return nil
}

func readSource(path string) (autofix.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return autofix.NewSource(string(data)), nil
}
