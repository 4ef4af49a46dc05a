package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config describes the Neo4j instance holding the product graph.
type Config struct {
	URI             string        `split_words:"true" default:"neo4j://localhost:7687"`
	Username        string        `split_words:"true" default:"neo4j"`
	Password        string        `split_words:"true"`
	Database        string        `split_words:"true" default:"neo4j"`
	IngestBatchSize int           `split_words:"true" default:"100"`
	QueryTimeout    time.Duration `split_words:"true" default:"5s"`
}

// New opens a driver and verifies that the server is reachable.
func (c *Config) New(ctx context.Context) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(c.URI, neo4j.BasicAuth(c.Username, c.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return driver, nil
}
