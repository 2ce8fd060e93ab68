package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-backoffice/internal/outbox"
)

func newRelayOnceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "relay-once",
		Short: "Publish one batch of pending outbox messages and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			db, err := e.storage()
			if err != nil {
				return err
			}
			defer closeWith(e.log, "storage", db)

			conn, err := rabbitmq.Connect(e.cfg.RabbitMQ.URL, e.cfg.RabbitMQ.MaxRetries, e.cfg.RabbitMQ.RetryDelay)
			if err != nil {
				return err
			}
			defer closeWith(e.log, "connection", conn)
			ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
			if err != nil {
				return err
			}
			defer closeWith(e.log, "channel", ch)

			publisher, err := rabbitmq.NewPublisher(ch, rabbitmq.Exchange)
			if err != nil {
				return err
			}
			p := outbox.NewProcessor(db, publisher, outbox.NewProcessorConfig(e.cfg.Outbox), e.log)
			n, err := p.ProcessOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d message(s)\n", n)
			return nil
		},
	}
}

func newPurgeOutboxCmd(opts *options) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-outbox",
		Short: "Delete published outbox messages older than the retention period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			db, err := e.storage()
			if err != nil {
				return err
			}
			defer closeWith(e.log, "storage", db)

			relayCfg := outbox.NewProcessorConfig(e.cfg.Outbox)
			if olderThan > 0 {
				relayCfg.Retention = olderThan
			}
			// публикация не нужна, процессор используется только для очистки
			n, err := outbox.NewProcessor(db, nil, relayCfg, e.log).Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d message(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "override outbox retention, e.g. 72h")
	return cmd
}
