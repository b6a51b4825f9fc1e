// Package graph mirrors scenario graphs into neo4j so authors can inspect
// branches with Cypher.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) EnsureIndexes(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT scenario_unique_code IF NOT EXISTS
FOR (s:Scenario) REQUIRE s.code IS UNIQUE`,
		`CREATE CONSTRAINT scene_unique_id IF NOT EXISTS
FOR (s:Scene) REQUIRE (s.scenario_code, s.scene_id) IS UNIQUE`,
		`CREATE FULLTEXT INDEX scene_fulltext IF NOT EXISTS
FOR (s:Scene) ON EACH [s.title, s.content]`,
		`CREATE INDEX scene_scenario_code IF NOT EXISTS FOR (s:Scene) ON (s.scenario_code)`,
	}

	for _, stmt := range statements {
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("ensuring indexes: %w", err)
		}
	}

	return nil
}
