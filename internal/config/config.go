package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources        Sources        `yaml:"sources"`
	Window         Window         `yaml:"window"`
	Classification Classification `yaml:"classification"`
	Output         Output         `yaml:"output"`
	Server         Server         `yaml:"server"`
}

type Sources struct {
	Feeds        []Feed        `yaml:"feeds"`
	Limits       map[string]int `yaml:"limits"`
	DefaultLimit int           `yaml:"default_limit"`
	NewsAPI      NewsAPIConfig `yaml:"newsapi"`
	PubMed       PubMedConfig  `yaml:"pubmed"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type NewsAPIConfig struct {
	Enabled    bool     `yaml:"enabled"`
	APIKeyEnv  string   `yaml:"api_key_env"`
	Queries    []string `yaml:"queries"`
	MaxResults int      `yaml:"max_results"`
}

type PubMedConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Queries    []string `yaml:"queries"`
	MaxResults int      `yaml:"max_results"`
}

type Window struct {
	DaysBack int `yaml:"days_back"`
	MaxItems int `yaml:"max_items"`
}

type Classification struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Output struct {
	DataDir   string `yaml:"data_dir"`
	BriefsDir string `yaml:"briefs_dir"`
	LogsDir   string `yaml:"logs_dir"`
	SiteDir   string `yaml:"site_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for clinbrief.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "clinbrief")
}

// DataDir returns the XDG data directory for clinbrief.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "clinbrief")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/clinbrief/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'clinbrief init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			DefaultLimit: 4,
			NewsAPI: NewsAPIConfig{
				APIKeyEnv:  "NEWSAPI_KEY",
				MaxResults: 50,
			},
			PubMed: PubMedConfig{
				MaxResults: 20,
			},
		},
		Window: Window{
			DaysBack: 30,
			MaxItems: 40,
		},
		Classification: Classification{
			Provider:    "openai",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   500,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks startup requirements. A missing credential for the
// selected classification provider is fatal: the run must not start.
func (c *Config) Validate() error {
	if c.Classification.Provider == "openai" && os.Getenv(c.Classification.APIKeyEnv) == "" {
		return fmt.Errorf("%s environment variable is required for the openai provider", c.Classification.APIKeyEnv)
	}
	if c.Sources.NewsAPI.Enabled && os.Getenv(c.Sources.NewsAPI.APIKeyEnv) == "" {
		return fmt.Errorf("%s environment variable is required when newsapi is enabled", c.Sources.NewsAPI.APIKeyEnv)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// BriefsPath returns the directory for brief JSON documents.
func (c *Config) BriefsPath() string {
	if c.Output.BriefsDir != "" {
		return c.Output.BriefsDir
	}
	return filepath.Join(c.GetDataDir(), "briefs")
}

// LogsPath returns the directory for per-run audit logs.
func (c *Config) LogsPath() string {
	if c.Output.LogsDir != "" {
		return c.Output.LogsDir
	}
	return filepath.Join(c.GetDataDir(), "logs")
}

// SitePath returns the directory for the rendered HTML page.
func (c *Config) SitePath() string {
	if c.Output.SiteDir != "" {
		return c.Output.SiteDir
	}
	return filepath.Join(c.GetDataDir(), "site")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
