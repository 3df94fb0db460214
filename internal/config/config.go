// Package config resolves the engine's configuration: the core repair-loop
// settings (MAX_ITERATIONS, SANDBOX_TIMEOUT, MODEL_BACKEND, MODEL_NAME,
// MODEL_MAX_TOKENS, DEBUG) plus the deployment settings for delivery, memory,
// and the HTTP/MCP front ends. Load layers, lowest precedence first:
// hardcoded defaults, an optional TOML file for settings that don't fit
// naturally as flat env vars, an optional .env file loaded via godotenv,
// then the process environment. Command-line flags are not read here.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the fully resolved set of engine settings.
type Config struct {
	MaxIterations  int
	SandboxTimeout time.Duration
	ModelBackend   string
	ModelName      string
	ModelMaxTokens int
	Debug          bool

	GitHubToken  string
	RepoOwner    string
	RepoName     string
	TargetBranch string

	FixMemoryPath string
	RedisAddr     string

	HTTPAddr string
	JWTKey   string
}

// fileConfig mirrors Config for the optional TOML layer; BurntSushi/toml
// decodes directly into exported fields via their snake_case toml tags.
type fileConfig struct {
	MaxIterations  int    `toml:"max_iterations"`
	SandboxTimeout int    `toml:"sandbox_timeout_seconds"`
	ModelBackend   string `toml:"model_backend"`
	ModelName      string `toml:"model_name"`
	ModelMaxTokens int    `toml:"model_max_tokens"`
	Debug          bool   `toml:"debug"`

	GitHubToken  string `toml:"github_token"`
	RepoOwner    string `toml:"repo_owner"`
	RepoName     string `toml:"repo_name"`
	TargetBranch string `toml:"target_branch"`

	FixMemoryPath string `toml:"fix_memory_path"`
	RedisAddr     string `toml:"redis_addr"`

	HTTPAddr string `toml:"http_addr"`
	JWTKey   string `toml:"jwt_key"`
}

// defaults returns the engine's baseline configuration before any file,
// environment, or flag override is applied.
func defaults() Config {
	return Config{
		MaxIterations:  5,
		SandboxTimeout: 10 * time.Second,
		ModelBackend:   "openai",
		ModelName:      "gpt-4o-mini",
		ModelMaxTokens: 2048,
		Debug:          false,
		TargetBranch:   "main",
		FixMemoryPath:  "fix_memory.db",
		HTTPAddr:       ":8080",
	}
}

// Load resolves Config by layering, lowest precedence first: hardcoded
// defaults, an optional TOML file at tomlPath, an optional .env file at
// envPath, then real process environment variables.
func Load(envPath, tomlPath string) Config {
	cfg := defaults()

	if tomlPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(tomlPath, &fc); err == nil {
			applyFileConfig(&cfg, fc)
		}
	}

	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	applyEnv(&cfg)
	return cfg
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.MaxIterations != 0 {
		cfg.MaxIterations = fc.MaxIterations
	}
	if fc.SandboxTimeout != 0 {
		cfg.SandboxTimeout = time.Duration(fc.SandboxTimeout) * time.Second
	}
	if fc.ModelBackend != "" {
		cfg.ModelBackend = fc.ModelBackend
	}
	if fc.ModelName != "" {
		cfg.ModelName = fc.ModelName
	}
	if fc.ModelMaxTokens != 0 {
		cfg.ModelMaxTokens = fc.ModelMaxTokens
	}
	cfg.Debug = cfg.Debug || fc.Debug
	if fc.GitHubToken != "" {
		cfg.GitHubToken = fc.GitHubToken
	}
	if fc.RepoOwner != "" {
		cfg.RepoOwner = fc.RepoOwner
	}
	if fc.RepoName != "" {
		cfg.RepoName = fc.RepoName
	}
	if fc.TargetBranch != "" {
		cfg.TargetBranch = fc.TargetBranch
	}
	if fc.FixMemoryPath != "" {
		cfg.FixMemoryPath = fc.FixMemoryPath
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.JWTKey != "" {
		cfg.JWTKey = fc.JWTKey
	}
}

func applyEnv(cfg *Config) {
	cfg.MaxIterations = intEnv("MAX_ITERATIONS", cfg.MaxIterations)
	cfg.SandboxTimeout = durationSecondsEnv("SANDBOX_TIMEOUT", cfg.SandboxTimeout)
	cfg.ModelBackend = stringEnv("MODEL_BACKEND", cfg.ModelBackend)
	cfg.ModelName = stringEnv("MODEL_NAME", cfg.ModelName)
	cfg.ModelMaxTokens = intEnv("MODEL_MAX_TOKENS", cfg.ModelMaxTokens)
	cfg.Debug = boolEnv("DEBUG", cfg.Debug)

	cfg.GitHubToken = stringEnv("GITHUB_TOKEN", cfg.GitHubToken)
	cfg.RepoOwner = stringEnv("REPO_OWNER", cfg.RepoOwner)
	cfg.RepoName = stringEnv("REPO_NAME", cfg.RepoName)
	cfg.TargetBranch = stringEnv("TARGET_BRANCH", cfg.TargetBranch)

	cfg.FixMemoryPath = stringEnv("FIX_MEMORY_PATH", cfg.FixMemoryPath)
	cfg.RedisAddr = stringEnv("REDIS_ADDR", cfg.RedisAddr)

	cfg.HTTPAddr = stringEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTKey = stringEnv("JWT_SIGNING_KEY", cfg.JWTKey)
}

func stringEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func intEnv(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationSecondsEnv(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func boolEnv(name string, fallback bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
