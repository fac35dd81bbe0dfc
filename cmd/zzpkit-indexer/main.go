// Package main provides the zzpkit backfill indexer. It re-embeds all
// of one user's records into the vector store and exits.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/zzpkit/zzpkit/pkg/cmd"
	"github.com/zzpkit/zzpkit/pkg/embedding"
	"github.com/zzpkit/zzpkit/pkg/indexer"
	"github.com/zzpkit/zzpkit/pkg/log"
	"github.com/zzpkit/zzpkit/pkg/vectorstore"
)

func main() {
	logger := log.WithModule("indexer")

	command := &cli.Command{
		Name:                  "zzpkit-indexer",
		Usage:                 "Backfill the vector store from a user's records",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL, or a directory path for the file backend",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "user-id",
				Usage:    "User whose records are indexed",
				Required: true,
				Sources:  cli.EnvVars("USER_ID"),
			},
			&cli.StringFlag{
				Name:     "openai-api-key",
				Usage:    "API key for the embeddings provider",
				Required: true,
				Sources:  cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Override the embeddings API base URL (for compatible servers)",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "vector-dir",
				Usage:   "Directory for the embedded vector database; empty stores vectors in the main database",
				Sources: cli.EnvVars("VECTOR_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
				APIKey:  command.String("openai-api-key"),
				BaseURL: command.String("openai-base-url"),
			}, logger)
			if err != nil {
				return err
			}

			var store vectorstore.Store
			if dir := command.String("vector-dir"); dir != "" {
				store, err = vectorstore.NewChromemStore(dir, provider, logger)
				if err != nil {
					return err
				}
			} else {
				store = vectorstore.NewEmbeddingStore(persistence.Embeddings(), provider, logger)
			}

			ix := indexer.NewIndexer(persistence, store, logger)

			return ix.IndexAllUserData(ctx, command.String("user-id"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
