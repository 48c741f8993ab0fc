// Package config loads clausesmith settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no -config flag is given. A missing file is fine.
const DefaultPath = "clausesmith.yaml"

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	ModeDirect   = "direct"
	ModeRefining = "refining"

	AssessorKeyword = "keyword"
	AssessorModel   = "model"
)

// Budgets per refinement mode.
const (
	directBudget   = 1
	refiningBudget = 10
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Index     IndexConfig     `yaml:"index"`
	Drafting  DraftingConfig  `yaml:"drafting"`
	PDFParser PDFParserConfig `yaml:"pdf_parser"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      int           `yaml:"rate_limit"` // requests per second per client, 0 disables
	RateBurst      int           `yaml:"rate_burst"`
}

type ProviderConfig struct {
	Name           string  `yaml:"name"` // ollama | openai
	OllamaURL      string  `yaml:"ollama_url"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	OpenAIAPIKey   string  `yaml:"-"`
	ChatModel      string  `yaml:"chat_model"`      // defaults per provider
	EmbeddingModel string  `yaml:"embedding_model"` // defaults per provider
	Temperature    float64 `yaml:"temperature"`
}

type IndexConfig struct {
	Backend      string `yaml:"backend"` // sqlite | memory
	DataPath     string `yaml:"data_path"`
	CorpusDir    string `yaml:"corpus_dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

type DraftingConfig struct {
	TopK          int    `yaml:"top_k"`
	Mode          string `yaml:"mode"` // direct | refining
	AttemptBudget int    `yaml:"attempt_budget"`
	Assessor      string `yaml:"assessor"` // keyword | model
	RulesFile     string `yaml:"rules_file"`
}

// PDFParserConfig points at the PDF text extraction sidecar.
type PDFParserConfig struct {
	URL    string `yaml:"url"`
	Script string `yaml:"script"` // started by `index` when set
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   300 * time.Second,
			RequestTimeout: 240 * time.Second,
			RateLimit:      2,
			RateBurst:      5,
		},
		Provider: ProviderConfig{
			Name:        ProviderOllama,
			OllamaURL:   "http://localhost:11434",
			Temperature: 0.7,
		},
		Index: IndexConfig{
			Backend:      BackendSQLite,
			DataPath:     "./data",
			CorpusDir:    "./contracts",
			ChunkSize:    1500,
			ChunkOverlap: 200,
		},
		Drafting: DraftingConfig{
			TopK:     5,
			Mode:     ModeRefining,
			Assessor: AssessorKeyword,
		},
		PDFParser: PDFParserConfig{
			URL: "http://localhost:5001",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = envOr("CLAUSESMITH_ADDR", c.Server.Addr)
	c.Provider.Name = envOr("CLAUSESMITH_PROVIDER", c.Provider.Name)
	c.Provider.OllamaURL = envOr("OLLAMA_URL", c.Provider.OllamaURL)
	c.Provider.OpenAIBaseURL = envOr("OPENAI_BASE_URL", c.Provider.OpenAIBaseURL)
	c.Provider.OpenAIAPIKey = envOr("OPENAI_API_KEY", c.Provider.OpenAIAPIKey)
	c.Provider.ChatModel = envOr("CLAUSESMITH_CHAT_MODEL", c.Provider.ChatModel)
	c.Provider.EmbeddingModel = envOr("CLAUSESMITH_EMBED_MODEL", c.Provider.EmbeddingModel)
	c.Index.Backend = envOr("CLAUSESMITH_INDEX_BACKEND", c.Index.Backend)
	c.Index.DataPath = envOr("CLAUSESMITH_DATA", c.Index.DataPath)
	c.Index.CorpusDir = envOr("CLAUSESMITH_CORPUS", c.Index.CorpusDir)
	c.Drafting.Mode = envOr("CLAUSESMITH_MODE", c.Drafting.Mode)
	c.Drafting.Assessor = envOr("CLAUSESMITH_ASSESSOR", c.Drafting.Assessor)
	c.Drafting.RulesFile = envOr("CLAUSESMITH_RULES", c.Drafting.RulesFile)
	c.PDFParser.URL = envOr("PDF_PARSER_URL", c.PDFParser.URL)

	if v := os.Getenv("CLAUSESMITH_ATTEMPT_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CLAUSESMITH_ATTEMPT_BUDGET: %w", err)
		}
		c.Drafting.AttemptBudget = n
	}
	return nil
}

func (c *Config) normalize() {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	c.Index.Backend = strings.ToLower(strings.TrimSpace(c.Index.Backend))
	c.Drafting.Mode = strings.ToLower(strings.TrimSpace(c.Drafting.Mode))
	c.Drafting.Assessor = strings.ToLower(strings.TrimSpace(c.Drafting.Assessor))
	c.Provider.OllamaURL = strings.TrimRight(c.Provider.OllamaURL, "/")

	chat, embed := "mistral", "nomic-embed-text"
	if c.Provider.Name == ProviderOpenAI {
		chat, embed = "gpt-4o-mini", "text-embedding-3-small"
	}
	if c.Provider.ChatModel == "" {
		c.Provider.ChatModel = chat
	}
	if c.Provider.EmbeddingModel == "" {
		c.Provider.EmbeddingModel = embed
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Provider.Name {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider.Name, ProviderOllama, ProviderOpenAI)
	}
	if c.Provider.Name == ProviderOpenAI && c.Provider.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required for the openai provider")
	}
	switch c.Index.Backend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown index backend %q (want %s or %s)", c.Index.Backend, BackendSQLite, BackendMemory)
	}
	switch c.Drafting.Mode {
	case ModeDirect, ModeRefining:
	default:
		return fmt.Errorf("unknown drafting mode %q (want %s or %s)", c.Drafting.Mode, ModeDirect, ModeRefining)
	}
	switch c.Drafting.Assessor {
	case AssessorKeyword, AssessorModel:
	default:
		return fmt.Errorf("unknown assessor %q (want %s or %s)", c.Drafting.Assessor, AssessorKeyword, AssessorModel)
	}
	if c.Drafting.AttemptBudget < 0 {
		return fmt.Errorf("attempt_budget must be positive, got %d", c.Drafting.AttemptBudget)
	}
	if c.Drafting.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Drafting.TopK)
	}
	if c.Index.ChunkSize <= 0 || c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("invalid chunking %d/%d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Provider.Temperature)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("rate limit settings cannot be negative")
	}
	return nil
}

// AttemptBudget resolves the per-request generation budget. An explicit
// attempt_budget wins over the mode.
func (c Config) AttemptBudget() int {
	if c.Drafting.AttemptBudget > 0 {
		return c.Drafting.AttemptBudget
	}
	if c.Drafting.Mode == ModeDirect {
		return directBudget
	}
	return refiningBudget
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
