package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/datasource"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *Store) meta(ctx context.Context, q queryer, name string) (uint64, error) {
	var val int64
	err := q.QueryRowContext(ctx, s.rebind(`SELECT val FROM meta WHERE name = ?`), name).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, describe(err))
	}
	return uint64(val), nil
}

// BlockHeight ...
func (s *Store) BlockHeight(ctx context.Context) (uint64, error) {
	return s.meta(ctx, s.db, metaHeight)
}

// GetBlock ...
func (s *Store) GetBlock(ctx context.Context, height uint64) (*datasource.BlockRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT height, view_number, hash, signer, signature, block_time
		 FROM blocks WHERE height = ?`),
		int64(height),
	)
	return s.scanBlock(ctx, row, strconv.FormatUint(height, 10))
}

// GetBlockByHash returns the lowest block stored under hash.
func (s *Store) GetBlockByHash(ctx context.Context, hash string) (*datasource.BlockRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT height, view_number, hash, signer, signature, block_time
		 FROM blocks WHERE hash = ? ORDER BY height LIMIT 1`),
		datasource.NormaliseBlockHash(hash),
	)
	return s.scanBlock(ctx, row, hash)
}

func (s *Store) scanBlock(ctx context.Context, row *sql.Row, key string) (*datasource.BlockRecord, error) {
	var (
		height, view int64
		rec          datasource.BlockRecord
	)
	err := row.Scan(&height, &view, &rec.Hash, &rec.Signer, &rec.Signature, &rec.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewStoreErr("Block", common.KeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read block %s: %w", key, describe(err))
	}
	rec.Height = uint64(height)
	rec.View = uint64(view)

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT payload FROM transactions WHERE block_height = ? ORDER BY idx`),
		height,
	)
	if err != nil {
		return nil, fmt.Errorf("read transactions of block %d: %w", height, describe(err))
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rec.Transactions = append(rec.Transactions, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rec, nil
}

// GetTransaction returns the first occurrence of a transaction.
func (s *Store) GetTransaction(ctx context.Context, hash string) (*datasource.TransactionRecord, error) {
	var (
		height int64
		rec    datasource.TransactionRecord
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT block_height, idx, hash, payload FROM transactions
		 WHERE hash = ? ORDER BY block_height, idx LIMIT 1`),
		datasource.NormaliseTxHash(hash),
	).Scan(&height, &rec.Index, &rec.Hash, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewStoreErr("Transaction", common.KeyNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("read transaction %s: %w", hash, describe(err))
	}
	rec.BlockHeight = uint64(height)
	return &rec, nil
}

// Status ...
func (s *Store) Status(ctx context.Context) (datasource.Status, error) {
	var (
		status datasource.Status
		err    error
	)
	if status.BlockHeight, err = s.meta(ctx, s.db, metaHeight); err != nil {
		return status, err
	}
	if status.ViewsFinished, err = s.meta(ctx, s.db, metaViews); err != nil {
		return status, err
	}
	if status.Decides, err = s.meta(ctx, s.db, metaDecides); err != nil {
		return status, err
	}
	last, err := s.meta(ctx, s.db, metaLastDecide)
	if err != nil {
		return status, err
	}
	if status.Decides > 0 {
		status.LastDecide = time.Unix(0, int64(last))
	}
	return status, nil
}
