// Package cli реализует административную утилиту backofficectl.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-backoffice/internal/config"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/logger"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage/repository"
)

// ErrNoConfig путь к конфигу не задан ни флагом, ни переменной окружения
var ErrNoConfig = errors.New("config path is not set: use --config or CONFIG_PATH")

type options struct {
	configPath string
}

// env конфиг и логгер, загружаемые командами, которым они нужны
type env struct {
	cfg *config.Config
	log *slog.Logger
}

func (o *options) load() (*env, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, ErrNoConfig
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger.New(cfg.Env, cfg.LogLevel)}, nil
}

func (e *env) storage() (*repository.Storage, error) {
	return repository.New(e.cfg.StorageConnectionString)
}

// NewRootCmd собирает дерево команд.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "backofficectl",
		Short: "Administrative tool for the subscription back-office",
		Long: `backofficectl runs maintenance tasks against the back-office database,
broker and health endpoint.

Examples:
  backofficectl migrate
  backofficectl create-superuser --email admin@example.com --password secret
  backofficectl relay-once
  backofficectl purge-outbox --older-than 72h
  backofficectl health --addr localhost:9090`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (defaults to CONFIG_PATH)")

	root.AddCommand(
		newMigrateCmd(opts),
		newCreateSuperuserCmd(opts),
		newRelayOnceCmd(opts),
		newPurgeOutboxCmd(opts),
		newHealthCmd(),
	)
	return root
}

// Execute запускает утилиту и завершает процесс с кодом 1 при ошибке.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func closeWith(log *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, sl.Err(err))
	}
}
