package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/datasource"
)

// Apply records ev in a single SQL transaction.
func (s *Store) Apply(ctx context.Context, ev consensus.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", describe(err))
	}
	defer tx.Rollback()

	switch ev.Type {
	case consensus.ViewFinished:
		if err := s.incr(ctx, tx, metaViews); err != nil {
			return err
		}
	case consensus.Decide:
		if ev.Block == nil {
			return fmt.Errorf("decide event without block")
		}
		if err := s.insertBlock(ctx, tx, ev); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown event type %d", ev.Type)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", describe(err))
	}

	s.ObserveApplied(ev)
	return nil
}

func (s *Store) insertBlock(ctx context.Context, tx *sql.Tx, ev consensus.Event) error {
	height, err := s.meta(ctx, tx, metaHeight)
	if err != nil {
		return err
	}

	rec := datasource.NewBlockRecord(height, ev.Block)

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO blocks (height, view_number, hash, signer, signature, block_time)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		int64(rec.Height), int64(rec.View), rec.Hash, rec.Signer, rec.Signature, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert block %d: %w", rec.Height, describe(err))
	}

	for _, txRec := range rec.TransactionRecords() {
		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO transactions (block_height, idx, hash, payload)
			 VALUES (?, ?, ?, ?)`),
			int64(txRec.BlockHeight), txRec.Index, txRec.Hash, txRec.Payload,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", txRec.Hash, describe(err))
		}
	}

	if err := s.setMeta(ctx, tx, metaHeight, int64(height+1)); err != nil {
		return err
	}
	if err := s.incr(ctx, tx, metaDecides); err != nil {
		return err
	}
	return s.setMeta(ctx, tx, metaLastDecide, ev.Timestamp.UnixNano())
}

func (s *Store) incr(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO meta (name, val) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET val = meta.val + 1`),
		name,
	)
	if err != nil {
		return fmt.Errorf("increment %s: %w", name, describe(err))
	}
	return nil
}

func (s *Store) setMeta(ctx context.Context, tx *sql.Tx, name string, val int64) error {
	_, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO meta (name, val) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET val = excluded.val`),
		name, val,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, describe(err))
	}
	return nil
}
