//! ClickHouse access
//!
//! Native-protocol client for queries and DDL, plus an HTTP JSONEachRow
//! batch writer for bulk inserts.

package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client wraps a native connection with the schema helpers the services
// need.
type Client struct {
	conn     driver.Conn
	database string
}

func NewClient(dsn, database string) (*Client, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect: %w", err)
	}
	return &Client{conn: conn, database: database}, nil
}

// Conn exposes the underlying connection for the loader packages.
func (c *Client) Conn() driver.Conn { return c.conn }

func (c *Client) Database() string { return c.database }

func (c *Client) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

func (c *Client) Close() error { return c.conn.Close() }

// EnsureSchema creates the database and the tables the services read and
// write. Idempotent; ReplacingMergeTree keeps re-ingestion dedup-safe.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", c.database)); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	ddls := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.prices (
				symbol String,
				date Date,
				open Float64,
				high Float64,
				low Float64,
				close Float64,
				volume Float64,
				ingested_at DateTime64(3) DEFAULT now64(3)
			)
			ENGINE = ReplacingMergeTree(ingested_at)
			ORDER BY (symbol, date)
			SETTINGS index_granularity = 8192
		`, c.database),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.sentiment (
				symbol String,
				date Date,
				value Int32,
				classification LowCardinality(String),
				ingested_at DateTime64(3) DEFAULT now64(3)
			)
			ENGINE = ReplacingMergeTree(ingested_at)
			ORDER BY (symbol, date)
		`, c.database),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.results (
				run_id String,
				symbol String,
				strategy_variant LowCardinality(String),
				payload String,
				created_at DateTime64(3) DEFAULT now64(3)
			)
			ENGINE = MergeTree
			ORDER BY (symbol, created_at)
		`, c.database),
	}
	for _, ddl := range ddls {
		if err := c.conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
