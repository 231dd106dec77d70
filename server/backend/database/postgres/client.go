/*
 * Copyright 2026 The Scribe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package postgres implements database interfaces using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/server/backend/database"
	"github.com/scribe-team/scribe/server/logging"
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// Client is a client that connects to PostgreSQL and reads or saves Scribe
// data.
type Client struct {
	config *Config
	pool   *pgxpool.Pool
}

// Dial creates an instance of Client and connects to the given PostgreSQL.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(conf.ConnectionURI)
	if err != nil {
		return nil, fmt.Errorf("parse postgres uri: %w", err)
	}
	if conf.MaxConns > 0 {
		poolConfig.MaxConns = conf.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logging.DefaultLogger().Infof("PostgreSQL connected, host: %s, DB: %s", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Database)

	return &Client{
		config: conf,
		pool:   pool,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

// FindOrCreateDocInfo finds the document or creates it if it does not exist.
func (c *Client) FindOrCreateDocInfo(ctx context.Context, docID string) (*database.DocInfo, error) {
	now := time.Now()
	if _, err := c.pool.Exec(ctx, `
		INSERT INTO documents (id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING`,
		docID, document.InitialVersion, now,
	); err != nil {
		return nil, fmt.Errorf("find or create document of %s: %w", docID, err)
	}

	return c.FindDocInfo(ctx, docID)
}

// FindDocInfo finds the document of the given ID.
func (c *Client) FindDocInfo(ctx context.Context, docID string) (*database.DocInfo, error) {
	info := &database.DocInfo{}
	err := c.pool.QueryRow(ctx, `
		SELECT id, version, created_at, updated_at FROM documents WHERE id = $1`,
		docID,
	).Scan(&info.ID, &info.Version, &info.CreatedAt, &info.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", docID, err)
	}

	return info, nil
}

// FindDocInfosByPaging returns documents ordered by ID.
func (c *Client) FindDocInfosByPaging(
	ctx context.Context,
	paging database.Paging,
) ([]*database.DocInfo, error) {
	limit := any(nil)
	if paging.PageSize > 0 {
		limit = paging.PageSize
	}

	rows, err := c.pool.Query(ctx, `
		SELECT id, version, created_at, updated_at FROM documents
		WHERE id > $1 ORDER BY id LIMIT $2`,
		paging.Offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find documents after %q: %w", paging.Offset, err)
	}

	infos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*database.DocInfo, error) {
		info := &database.DocInfo{}
		err := row.Scan(&info.ID, &info.Version, &info.CreatedAt, &info.UpdatedAt)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("find documents after %q: %w", paging.Offset, err)
	}

	return infos, nil
}

// CreateOperationInfo stores the committed operation and advances the version
// of its document in a single transaction.
func (c *Client) CreateOperationInfo(
	ctx context.Context,
	info *database.OperationInfo,
) (*database.DocInfo, error) {
	var docInfo *database.DocInfo
	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		docInfo = &database.DocInfo{}
		err := tx.QueryRow(ctx, `
			SELECT id, version, created_at, updated_at FROM documents
			WHERE id = $1 FOR UPDATE`,
			info.DocID,
		).Scan(&docInfo.ID, &docInfo.Version, &docInfo.CreatedAt, &docInfo.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("create operation of %s: %w", info.DocID, database.ErrDocumentNotFound)
		}
		if err != nil {
			return err
		}

		if info.Version != docInfo.Version+1 {
			return fmt.Errorf(
				"create v%d of %s@v%d: %w",
				info.Version, info.DocID, docInfo.Version, database.ErrVersionConflict,
			)
		}

		id := xid.New().String()
		if _, err := tx.Exec(ctx, `
			INSERT INTO operations
				(id, doc_id, version, client_id, client_seq, kind, position, text, length, applied_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, info.DocID, info.Version, info.ClientID, int64(info.ClientSeq),
			info.Kind, info.Position, info.Text, info.Length, info.AppliedAt,
		); err != nil {
			return err
		}

		docInfo.Version = info.Version
		docInfo.UpdatedAt = time.Now()
		if _, err := tx.Exec(ctx,
			`UPDATE documents SET version = $2, updated_at = $3 WHERE id = $1`,
			info.DocID, docInfo.Version, docInfo.UpdatedAt,
		); err != nil {
			return err
		}

		info.ID = id
		return nil
	})
	if err != nil {
		if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("create v%d of %s: %w", info.Version, info.DocID, database.ErrVersionConflict)
		}
		if errors.Is(err, database.ErrVersionConflict) || errors.Is(err, database.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create operation of %s: %w", info.DocID, err)
	}

	return docInfo, nil
}

// FindOperationInfosBetweenVersions returns the operations of the document
// with versions in [from, to].
func (c *Client) FindOperationInfosBetweenVersions(
	ctx context.Context,
	docID string,
	from int64,
	to int64,
) ([]*database.OperationInfo, error) {
	if from > to {
		return nil, nil
	}

	rows, err := c.pool.Query(ctx, `
		SELECT id, doc_id, version, client_id, client_seq, kind, position, text, length, applied_at
		FROM operations
		WHERE doc_id = $1 AND version BETWEEN $2 AND $3
		ORDER BY version`,
		docID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("find operations of %s: %w", docID, err)
	}

	infos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*database.OperationInfo, error) {
		info := &database.OperationInfo{}
		var clientSeq int64
		err := row.Scan(
			&info.ID, &info.DocID, &info.Version, &info.ClientID, &clientSeq,
			&info.Kind, &info.Position, &info.Text, &info.Length, &info.AppliedAt,
		)
		info.ClientSeq = uint32(clientSeq)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("find operations of %s: %w", docID, err)
	}

	return infos, nil
}

// CreateSnapshotInfo stores the snapshot of the given document.
func (c *Client) CreateSnapshotInfo(ctx context.Context, snapshot document.Snapshot) error {
	if _, err := c.pool.Exec(ctx, `
		INSERT INTO snapshots (id, doc_id, version, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doc_id, version) DO NOTHING`,
		xid.New().String(), snapshot.DocumentID, snapshot.Version, snapshot.Content, time.Now(),
	); err != nil {
		return fmt.Errorf("create snapshot of %s: %w", snapshot.DocumentID, err)
	}

	return nil
}

// FindClosestSnapshotInfo finds the last snapshot of the given document at or
// before the given version.
func (c *Client) FindClosestSnapshotInfo(
	ctx context.Context,
	docID string,
	version int64,
) (*database.SnapshotInfo, error) {
	info := &database.SnapshotInfo{}
	err := c.pool.QueryRow(ctx, `
		SELECT id, doc_id, version, content, created_at FROM snapshots
		WHERE doc_id = $1 AND version <= $2
		ORDER BY version DESC LIMIT 1`,
		docID, version,
	).Scan(&info.ID, &info.DocID, &info.Version, &info.Content, &info.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &database.SnapshotInfo{DocID: docID, Version: document.InitialVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot before %d of %s: %w", version, docID, err)
	}

	return info, nil
}
