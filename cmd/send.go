package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowmail/mailtask/internal/config"
	"github.com/flowmail/mailtask/internal/logger"
	"github.com/flowmail/mailtask/internal/mail"
	"github.com/flowmail/mailtask/internal/render"
	"github.com/flowmail/mailtask/internal/storage"
	"github.com/flowmail/mailtask/internal/templates"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a notification email from a task definition",
	Long: `Send a notification email from a YAML task definition.

Server fields missing from the task file are filled from MAILTASK_* environment
variables. The command makes a single send attempt and exits non-zero on failure.

Example:
  mailtask send --task task.yaml`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().String("task", "", "Path to the task definition YAML file")
	_ = sendCmd.MarkFlagRequired("task")
}

func runSend(cmd *cobra.Command, _ []string) error {
	taskPath, _ := cmd.Flags().GetString("task")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defaults, err := config.LoadSMTPDefaults()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, defaults.SlogLevel())

	tf, err := config.LoadTaskFile(taskPath)
	if err != nil {
		return err
	}
	defaults.ApplyTo(&tf.Task)

	store, err := buildStore(ctx, tf.Storage)
	if err != nil {
		return fmt.Errorf("configuring attachment storage: %w", err)
	}

	renderer := render.NewTemplateRenderer()
	sender := mail.NewSender(
		renderer,
		templates.NewExpander(renderer),
		store,
		mail.NewSMTPTransport(),
		log,
	)
	return sender.Send(ctx, tf.Task)
}

// buildStore wires the blob-storage router: local paths and file:// URIs
// always work, s3:// only when configured.
func buildStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
	local := storage.NewLocalStore(cfg.BaseDir)
	router := storage.NewRouter(local)
	router.Register("file", local)

	if cfg.S3 != nil {
		s3Store, err := storage.NewS3Store(ctx, *cfg.S3)
		if err != nil {
			return nil, err
		}
		router.Register("s3", s3Store)
	}
	return router, nil
}
