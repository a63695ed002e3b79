package cmd

import (
	"log"
	"time"

	"github.com/dima1799/jobradar-ai/internal/headhunter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobradar"
)

type Config struct {
	Search    *headhunter.SearchParams `mapstructure:"search"`
	UserAgent string                   `mapstructure:"user-agent"`
	TokenFile string                   `mapstructure:"token-file"`

	Qdrant    *QdrantConfig    `mapstructure:"qdrant"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Retrieval *RetrievalConfig `mapstructure:"retrieval"`
	Summary   *SummaryConfig   `mapstructure:"summary"`
	Ingest    *IngestConfig    `mapstructure:"ingest"`
	AI        *AIConfig        `mapstructure:"ai"`
	Metrics   *MetricsConfig   `mapstructure:"metrics"`
}

type QdrantConfig struct {
	URL        string        `mapstructure:"url"`
	Collection string        `mapstructure:"collection"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	Dimension  int    `mapstructure:"dimension"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type RetrievalConfig struct {
	K          int           `mapstructure:"k"`
	FetchWidth int           `mapstructure:"fetch-width"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SummaryConfig struct {
	// Sections reorders the card anchors. Unknown names are ignored.
	Sections     []string `mapstructure:"sections"`
	MessageLimit int      `mapstructure:"message-limit"`
}

type IngestConfig struct {
	ExcludedEmployers []string      `mapstructure:"excluded-employers"`
	Delay             time.Duration `mapstructure:"delay"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobradar is a cli for semantic search over hh.ru vacancies",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// GEMINI_API_KEY_FILE feeds both gemini consumers: the mandatory
	// embedding encoder and the optional assistant.
	for key, env := range map[string]string{
		"token-file":             "HH_TOKEN_FILE",
		"embedding.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"qdrant.api-key-file":    "QDRANT_API_KEY_FILE",
		"qdrant.url":             "QDRANT_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobradar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only the version command works without a config file.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
