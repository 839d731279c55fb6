// Package servecmder provides the serve command that runs the catalyst
// backend.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/catalyst/api"
	"github.com/papercomputeco/catalyst/api/worker"
	"github.com/papercomputeco/catalyst/pkg/config"
	"github.com/papercomputeco/catalyst/pkg/eventstream"
	"github.com/papercomputeco/catalyst/pkg/eventstream/kafka"
	"github.com/papercomputeco/catalyst/pkg/eventstream/nop"
	"github.com/papercomputeco/catalyst/pkg/llm/provider"
	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/storage"
	"github.com/papercomputeco/catalyst/pkg/storage/inmemory"
	"github.com/papercomputeco/catalyst/pkg/storage/postgres"
	"github.com/papercomputeco/catalyst/pkg/storage/sqlite"
)

const defaultEnvFile = ".env"

type serveCommander struct {
	listen      string
	provider    string
	upstream    string
	model       string
	apiKeyEnv   string
	maxTokens   uint
	sqlitePath  string
	postgresDSN string
	brokers     string
	topic       string

	envFile string
	logFile string
	logJSON bool
	debug   bool

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagProvider,
	config.FlagUpstream,
	config.FlagModel,
	config.FlagAPIKeyEnv,
	config.FlagMaxTokens,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafka,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run the catalyst backend.

The backend streams topic evaluations, pre-mortems and summaries from the
configured LLM provider, classifies questions, suggests blind-spot questions
and stores completed workshops.

Storage is PostgreSQL when --postgres is set, SQLite when --sqlite is set
and in-memory otherwise. Saved workshops are announced on Kafka when
--kafka-brokers is set.

API keys are read from the environment variable named by --api-key-env
(default: OPENAI_API_KEY or ANTHROPIC_API_KEY). A .env file in the working
directory is loaded first.

Examples:
  catalyst serve
  catalyst serve --provider ollama --model qwen2.5
  catalyst serve --sqlite ./catalyst.db --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the catalyst backend"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.fromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context(), cmd.Flags().Changed("env-file"))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIKeyEnv, &cmder.apiKeyEnv)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafka, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.topic)

	cmd.Flags().StringVar(&cmder.envFile, "env-file", defaultEnvFile, "File of KEY=value pairs loaded into the environment")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Write JSON logs to stdout instead of pretty logs")

	return cmd
}

// fromViper resolves every bound setting through the viper precedence chain.
func (c *serveCommander) fromViper(v *viper.Viper) {
	c.listen = v.GetString("api.listen")
	c.provider = v.GetString("llm.provider")
	c.upstream = v.GetString("llm.upstream")
	c.model = v.GetString("llm.model")
	c.apiKeyEnv = v.GetString("llm.api_key_env")
	c.maxTokens = v.GetUint("api.max_tokens")
	c.sqlitePath = v.GetString("storage.sqlite_path")
	c.postgresDSN = v.GetString("storage.postgres_dsn")
	c.brokers = strings.Join(config.StringList(v, "events.kafka_brokers"), ",")
	c.topic = v.GetString("events.kafka_topic")
}

func (c *serveCommander) run(ctx context.Context, envFileExplicit bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	if err := c.loadEnvFile(envFileExplicit); err != nil {
		return err
	}

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	llm, err := c.newProvider()
	if err != nil {
		return err
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Source: eventstream.EventSource{
			Service:  "catalyst-api",
			Provider: llm.Name(),
		},
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	server := api.NewServer(api.Config{
		ListenAddr: c.listen,
		Model:      c.model,
		MaxTokens:  int(c.maxTokens),
	}, driver, llm, pool, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// setupLogger builds the console logger and, with --log-file, fans every
// record out to a JSON file as well.
func (c *serveCommander) setupLogger() (func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(!c.logJSON),
		logger.WithJSON(c.logJSON),
	)

	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	c.logger = logger.Multi(console, file)

	return func() { _ = f.Close() }, nil
}

// loadEnvFile loads the env file without overriding variables that are
// already set. A missing default file is not an error.
func (c *serveCommander) loadEnvFile(explicit bool) error {
	if c.envFile == "" {
		return nil
	}

	err := godotenv.Load(c.envFile)
	switch {
	case err == nil:
		c.logger.Debug("loaded env file", "path", c.envFile)
		return nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return nil
	default:
		return fmt.Errorf("loading env file %s: %w", c.envFile, err)
	}
}

func (c *serveCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	switch {
	case c.postgresDSN != "":
		driver, err := postgres.NewDriver(ctx, c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil

	case c.sqlitePath != "":
		driver, err := sqlite.NewDriver(ctx, c.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", c.sqlitePath)
		return driver, nil

	default:
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}

func (c *serveCommander) newProvider() (provider.Provider, error) {
	llmCfg := config.LLMConfig{Provider: c.provider, APIKeyEnv: c.apiKeyEnv}

	var apiKey string
	if env := llmCfg.KeyEnv(); env != "" {
		apiKey = os.Getenv(env)
		if apiKey == "" {
			c.logger.Warn("provider API key is not set", "provider", c.provider, "env", env)
		}
	}

	prov, err := provider.New(c.provider, provider.Config{
		Upstream: c.upstream,
		Model:    c.model,
		APIKey:   apiKey,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("using LLM provider",
		"provider", prov.Name(),
		"upstream", c.upstream,
		"model", c.model,
	)
	return prov, nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	brokers := config.SplitList(c.brokers)
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   c.topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	c.logger.Info("publishing workshop events to kafka",
		"brokers", brokers,
		"topic", c.topic,
	)
	return pub, nil
}
