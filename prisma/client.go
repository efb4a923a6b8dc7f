// Package prisma is the client for the models declared in prisma/schema.prisma.
package prisma

import (
	"context"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	db "github.com/TechXTT/tormprobe"
	"github.com/TechXTT/tormprobe/pkg/config"
)

// Test mirrors `model Test` in the schema.
type Test struct {
	ID uuid.UUID `db:"id"`
}

// Client exposes one delegate per model.
type Client struct {
	DB   *db.DB
	Test *db.Delegate[Test]
}

// NewClient connects using the datasource resolved from the schema.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	conn, err := db.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return NewClientFromDB(conn), nil
}

// NewClientFromDB wraps an already opened handle.
func NewClientFromDB(conn *db.DB) *Client {
	return &Client{
		DB:   conn,
		Test: db.Model[Test](conn),
	}
}

// Disconnect closes the database connection.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.DB.Disconnect(ctx)
}
