package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"companybot/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "companybot",
	Short: "Telegram bot that builds a personal assistant for any company website",
	Long: `companybot onboards companies through a Telegram conversation: it crawls
the company website, condenses the content into a knowledge summary, and
registers a retrieval-backed assistant that answers customer questions.

Commands:
  serve    Start the Telegram bot
  onboard  Onboard a single company from the command line`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/companybot")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// COMPANYBOT_TELEGRAM_TOKEN -> telegram.token
	viper.SetEnvPrefix("COMPANYBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("telegram.token", "COMPANYBOT_TELEGRAM_TOKEN")
	viper.BindEnv("openai.api_key", "COMPANYBOT_OPENAI_API_KEY")
	viper.BindEnv("openai.assistant_model", "COMPANYBOT_OPENAI_ASSISTANT_MODEL")
	viper.BindEnv("openai.summary_model", "COMPANYBOT_OPENAI_SUMMARY_MODEL")
	viper.BindEnv("crawl.api_key", "COMPANYBOT_CRAWL_API_KEY")
	viper.BindEnv("crawl.base_url", "COMPANYBOT_CRAWL_BASE_URL")
	viper.BindEnv("crawl.max_depth", "COMPANYBOT_CRAWL_MAX_DEPTH")
	viper.BindEnv("crawl.page_limit", "COMPANYBOT_CRAWL_PAGE_LIMIT")
	viper.BindEnv("database.dsn", "COMPANYBOT_DATABASE_DSN")
	viper.BindEnv("archive.endpoint", "COMPANYBOT_ARCHIVE_ENDPOINT")
	viper.BindEnv("archive.bucket", "COMPANYBOT_ARCHIVE_BUCKET")
	viper.BindEnv("archive.access_key_id", "COMPANYBOT_ARCHIVE_ACCESS_KEY_ID")
	viper.BindEnv("archive.secret_access_key", "COMPANYBOT_ARCHIVE_SECRET_ACCESS_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}
}
