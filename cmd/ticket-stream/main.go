// ticket-stream is the Lambda function that finishes cascade deletes from
// the tickets table stream.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/tickets/store"
	"github.com/jacentio/tickets/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	s := store.New(dynamodb.NewFromConfig(cfg), storeConfig())
	handler := stream.NewHandler(s, logger)
	lambda.Start(handler.HandleCascadeDelete)
}

// storeConfig reads table names from the function environment.
func storeConfig() store.Config {
	c := store.DefaultConfig()
	if v := os.Getenv("TICKET_TABLE"); v != "" {
		c.TicketTable = v
	}
	if v := os.Getenv("RELATIONSHIP_TABLE"); v != "" {
		c.RelationshipTable = v
	}
	if v := os.Getenv("COUNTER_TABLE"); v != "" {
		c.CounterTable = v
	}
	if v := os.Getenv("ROOT_INDEX"); v != "" {
		c.RootIndex = v
	}
	if n, err := strconv.Atoi(os.Getenv("NUM_SHARDS")); err == nil {
		c.NumShards = n
	}
	return c
}
