package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/codehealer/autofix-engine/internal/config"
)

func httpListenAndServe(srv *http.Server) error {
	return srv.ListenAndServe()
}

func writeDefaultEnvFile(path string) error {
	content := `# autofixctl configuration

MAX_ITERATIONS=5
SANDBOX_TIMEOUT=10
MODEL_BACKEND=openai
MODEL_NAME=gpt-4o-mini
MODEL_MAX_TOKENS=2048
DEBUG=false

GITHUB_TOKEN=
REPO_OWNER=
REPO_NAME=
TARGET_BRANCH=main

FIX_MEMORY_PATH=fix_memory.db
REDIS_ADDR=

HTTP_ADDR=:8080
JWT_SIGNING_KEY=
`
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return err
	}
	fmt.Printf("Configuration file written to %s\n", path)
	return nil
}

func printConfig(cfg config.Config) {
	fmt.Printf("\n=== Resolved Configuration ===\n")
	fmt.Printf("Max Iterations: %d\n", cfg.MaxIterations)
	fmt.Printf("Sandbox Timeout: %s\n", cfg.SandboxTimeout)
	fmt.Printf("Model Backend: %s\n", cfg.ModelBackend)
	fmt.Printf("Model Name: %s\n", cfg.ModelName)
	fmt.Printf("Model Max Tokens: %d\n", cfg.ModelMaxTokens)
	fmt.Printf("Debug: %t\n", cfg.Debug)
	fmt.Printf("Repository: %s/%s\n", cfg.RepoOwner, cfg.RepoName)
	fmt.Printf("Target Branch: %s\n", cfg.TargetBranch)
	fmt.Printf("GitHub Token: %s\n", maskSecret(cfg.GitHubToken))
	fmt.Printf("Fix Memory Path: %s\n", cfg.FixMemoryPath)
	fmt.Printf("HTTP Addr: %s\n", cfg.HTTPAddr)
	fmt.Println()
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
