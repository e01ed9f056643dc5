// Package graph connects the runner to a Neo4j (or Bolt-compatible)
// database.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/graphlint/internal/config"
)

// Client wraps the Neo4j driver and implements engine.Session. Every query
// runs in its own read transaction.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewClient creates a client from configuration. It does not connect;
// call Verify to check connectivity.
func NewClient(cfg config.Neo4jConfig) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Client{driver: driver, database: cfg.Database}, nil
}

// Close releases the Neo4j driver resources.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Verify checks connectivity to Neo4j.
func (c *Client) Verify(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Session returns a new read session on the configured database.
func (c *Client) Session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
}

// Run executes query and returns every row as a column→value map.
func (c *Client) Run(ctx context.Context, query string) ([]map[string]any, error) {
	session := c.Session(ctx)
	defer session.Close(ctx)

	result, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]map[string]any, error) {
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var rows []*neo4j.Record
		for records.Next(ctx) {
			rows = append(rows, records.Record())
		}
		if err := records.Err(); err != nil {
			return nil, err
		}
		return toRows(rows), nil
	})
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	return result, nil
}

func toRows(records []*neo4j.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.AsMap())
	}
	return rows
}
