package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/tickets/graphstore"
	"github.com/jacentio/tickets/internal/config"
	"github.com/jacentio/tickets/memstore"
	"github.com/jacentio/tickets/store"
	"github.com/jacentio/tickets/ticket"
)

// openRepository connects the configured backend. The returned function
// releases its resources.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ticket.Repository, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("using in-memory storage")
		return memstore.New(), noop, nil

	case config.BackendDynamoDB:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.DynamoDB.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.DynamoDB.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		s := store.New(client, cfg.StoreConfig())
		logger.Info("using dynamodb storage",
			"ticketTable", s.Config().TicketTable,
			"relationshipTable", s.Config().RelationshipTable,
			"numShards", s.Config().NumShards,
		)
		return s, noop, nil

	case config.BackendNeo4j:
		driver, err := graphstore.Connect(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password)
		if err != nil {
			return nil, nil, err
		}
		s := graphstore.New(driver, cfg.Neo4j.Database)
		if err := s.EnsureSchema(ctx); err != nil {
			driver.Close(ctx)
			return nil, nil, fmt.Errorf("neo4j schema: %w", err)
		}
		logger.Info("using neo4j storage", "uri", cfg.Neo4j.URI)
		return s, driver.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
