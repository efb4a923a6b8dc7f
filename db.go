package db

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/TechXTT/tormprobe/internal/core"
)

// DB struct using standard sql.DB
type DB struct {
	Conn *sql.DB

	closeOnce sync.Once
	closeErr  error
}

// Open initializes a new database connection and verifies it with a ping.
func Open(ctx context.Context, driver, dataSourceName string) (*DB, error) {
	conn, err := core.Connect(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Conn: conn}, nil
}

// Disconnect releases the underlying connections. Calls after the first
// return the first result.
func (db *DB) Disconnect(ctx context.Context) error {
	db.closeOnce.Do(func() {
		db.closeErr = core.Close(db.Conn)
	})
	return db.closeErr
}

// Delegate runs queries for one model. Its query engine (column plan and
// compiled SQL) is built on first use.
type Delegate[T any] struct {
	db *DB

	once   sync.Once
	engine *engine[T]
	err    error
}

type engine[T any] struct {
	table  string
	mapper *core.Mapper[T]
}

// Model returns the delegate for T. The table name is the snake_case form
// of the struct name.
func Model[T any](db *DB) *Delegate[T] {
	return &Delegate[T]{db: db}
}

func (d *Delegate[T]) load() (*engine[T], error) {
	d.once.Do(func() {
		mapper, err := core.NewMapper[T]()
		if err != nil {
			d.err = err
			return
		}
		d.engine = &engine[T]{
			table:  TableName[T](),
			mapper: mapper,
		}
	})
	return d.engine, d.err
}

func (d *Delegate[T]) query() (*core.QueryBuilder[T], error) {
	e, err := d.load()
	if err != nil {
		return nil, err
	}
	return core.NewQueryBuilder[T](d.db.Conn).
		WithMapper(e.mapper).
		From(e.table).
		Select(e.mapper.Columns()...), nil
}

// FindMany retrieves all rows of the model's table.
func (d *Delegate[T]) FindMany(ctx context.Context) ([]T, error) {
	qb, err := d.query()
	if err != nil {
		return nil, err
	}
	return qb.All(ctx)
}

// Count returns the number of rows in the model's table.
func (d *Delegate[T]) Count(ctx context.Context) (int64, error) {
	qb, err := d.query()
	if err != nil {
		return 0, err
	}
	return qb.Count(ctx)
}

// TableName derives the table for T from its type name.
func TableName[T any]() string {
	return core.SnakeCase(reflect.TypeOf((*T)(nil)).Elem().Name())
}
