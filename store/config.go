package store

import "github.com/jacentio/tickets/internal/shard"

// Config holds configuration for the Store.
type Config struct {
	// TicketTable is the name of the ticket table.
	// Default: "tickets"
	TicketTable string

	// RelationshipTable is the name of the relationship table.
	// Default: "ticket_relationships"
	RelationshipTable string

	// CounterTable holds the id sequence.
	// Default: "ticket_counters"
	CounterTable string

	// RootIndex is the sparse GSI over root tickets.
	// Default: "root_index"
	RootIndex string

	// NumShards is the number of shards for the relationship table.
	// Higher values increase write throughput per parent but require more
	// parallel queries to list children.
	// Default: 1 (no sharding, single query)
	// Max: 256
	//
	// Per-shard limits:
	//   - Writes: 1,000/sec
	//   - Reads: 3,000/sec
	NumShards int
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		TicketTable:       "tickets",
		RelationshipTable: "ticket_relationships",
		CounterTable:      "ticket_counters",
		RootIndex:         "root_index",
		NumShards:         1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.TicketTable == "" {
		c.TicketTable = d.TicketTable
	}
	if c.RelationshipTable == "" {
		c.RelationshipTable = d.RelationshipTable
	}
	if c.CounterTable == "" {
		c.CounterTable = d.CounterTable
	}
	if c.RootIndex == "" {
		c.RootIndex = d.RootIndex
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > shard.MaxShards {
		c.NumShards = shard.MaxShards
	}
}
