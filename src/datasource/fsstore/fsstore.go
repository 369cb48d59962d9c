// Package fsstore is the file-system query backend, a Badger database in a
// local directory.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/sirupsen/logrus"
)

const (
	blockPrefix     = "block"
	blockHashPrefix = "blockhash"
	txPrefix        = "tx"

	metaHeight     = "meta_height"
	metaViews      = "meta_views"
	metaDecides    = "meta_decides"
	metaLastDecide = "meta_last_decide"
)

// Store implements datasource.DataSource on Badger.
type Store struct {
	*datasource.Instruments

	db     *badger.DB
	path   string
	logger *logrus.Entry
}

// Create opens the store at conf.StoragePath, creating the directory if
// needed. With ResetStore, existing content is destroyed first. Failures are
// BackendInitErrors.
func Create(conf config.FS, logger *logrus.Entry) (*Store, error) {
	logger = logger.WithField("backend", "fs")

	if conf.StoragePath == "" {
		return nil, common.Errorf(common.BackendInitError, "open fs store", "empty storage path")
	}

	if conf.ResetStore {
		logger.WithField("path", conf.StoragePath).Debug("Resetting store")
		if err := os.RemoveAll(conf.StoragePath); err != nil {
			return nil, common.NewNodeErr(common.BackendInitError, "reset fs store", err)
		}
	}

	if err := os.MkdirAll(conf.StoragePath, 0700); err != nil {
		return nil, common.NewNodeErr(common.BackendInitError, "open fs store", err)
	}

	opts := badger.DefaultOptions(conf.StoragePath).
		WithSyncWrites(false).
		WithTruncate(true).
		WithLogger(badgerLogger{logger})

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, common.NewNodeErr(common.BackendInitError, "open fs store", err)
	}

	logger.WithField("path", conf.StoragePath).Debug("Opened store")

	return &Store{
		Instruments: datasource.NewInstruments("fs", logger),
		db:          handle,
		path:        conf.StoragePath,
		logger:      logger,
	}, nil
}

// Path ...
func (s *Store) Path() string {
	return s.path
}

// Close ...
func (s *Store) Close() error {
	return s.db.Close()
}

//==============================================================================
//Keys

func blockKey(height uint64) []byte {
	return []byte(fmt.Sprintf("%s_%020d", blockPrefix, height))
}

func blockHashKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s_%s", blockHashPrefix, datasource.NormaliseBlockHash(hash)))
}

func txKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s_%s", txPrefix, datasource.NormaliseTxHash(hash)))
}

//==============================================================================
//Writes

// Apply records ev in a single Badger transaction.
func (s *Store) Apply(ctx context.Context, ev consensus.Event) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	switch ev.Type {
	case consensus.ViewFinished:
		if err := incr(tx, metaViews); err != nil {
			return err
		}
	case consensus.Decide:
		if ev.Block == nil {
			return fmt.Errorf("decide event without block")
		}
		if err := s.setBlock(tx, ev); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown event type %d", ev.Type)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.ObserveApplied(ev)
	return nil
}

func (s *Store) setBlock(tx *badger.Txn, ev consensus.Event) error {
	height, err := getUint64(tx, metaHeight)
	if err != nil {
		return err
	}

	rec := datasource.NewBlockRecord(height, ev.Block)
	val, err := encode(rec)
	if err != nil {
		return err
	}

	//insert [height] => [block bytes]
	if err := tx.Set(blockKey(height), val); err != nil {
		return err
	}

	//insert [hash] => [height], first writer wins
	if err := setIfAbsent(tx, blockHashKey(rec.Hash), uint64Bytes(height)); err != nil {
		return err
	}

	for _, txRec := range rec.TransactionRecords() {
		val, err := encode(txRec)
		if err != nil {
			return err
		}
		if err := setIfAbsent(tx, txKey(txRec.Hash), val); err != nil {
			return err
		}
	}

	if err := tx.Set([]byte(metaHeight), uint64Bytes(height+1)); err != nil {
		return err
	}
	if err := incr(tx, metaDecides); err != nil {
		return err
	}
	return tx.Set([]byte(metaLastDecide), uint64Bytes(uint64(ev.Timestamp.UnixNano())))
}

func setIfAbsent(tx *badger.Txn, key, val []byte) error {
	_, err := tx.Get(key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return tx.Set(key, val)
}

func incr(tx *badger.Txn, key string) error {
	v, err := getUint64(tx, key)
	if err != nil {
		return err
	}
	return tx.Set([]byte(key), uint64Bytes(v+1))
}

func getUint64(tx *badger.Txn, key string) (uint64, error) {
	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	return bytesUint64(val), nil
}

//==============================================================================
//Reads

// BlockHeight ...
func (s *Store) BlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		height, err = getUint64(txn, metaHeight)
		return err
	})
	return height, err
}

// GetBlock ...
func (s *Store) GetBlock(ctx context.Context, height uint64) (*datasource.BlockRecord, error) {
	var rec *datasource.BlockRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readBlock(txn, height)
		return err
	})
	return rec, mapError(err, "Block", strconv.FormatUint(height, 10))
}

// GetBlockByHash ...
func (s *Store) GetBlockByHash(ctx context.Context, hash string) (*datasource.BlockRecord, error) {
	var rec *datasource.BlockRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockHashKey(hash))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = readBlock(txn, bytesUint64(val))
		return err
	})
	return rec, mapError(err, "Block", hash)
}

// GetTransaction ...
func (s *Store) GetTransaction(ctx context.Context, hash string) (*datasource.TransactionRecord, error) {
	var rec datasource.TransactionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(txKey(hash))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return decode(val, &rec)
	})
	if err != nil {
		return nil, mapError(err, "Transaction", hash)
	}
	return &rec, nil
}

// Status ...
func (s *Store) Status(ctx context.Context) (datasource.Status, error) {
	var status datasource.Status
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if status.BlockHeight, err = getUint64(txn, metaHeight); err != nil {
			return err
		}
		if status.ViewsFinished, err = getUint64(txn, metaViews); err != nil {
			return err
		}
		if status.Decides, err = getUint64(txn, metaDecides); err != nil {
			return err
		}
		last, err := getUint64(txn, metaLastDecide)
		if err != nil {
			return err
		}
		if status.Decides > 0 {
			status.LastDecide = time.Unix(0, int64(last))
		}
		return nil
	})
	return status, err
}

// blocks returns the stored blocks from height from, in height order.
func (s *Store) blocks(from uint64) ([]*datasource.BlockRecord, error) {
	res := []*datasource.BlockRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(blockPrefix + "_")

		for it.Seek(blockKey(from)); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := decodeBlock(val)
			if err != nil {
				return err
			}
			res = append(res, rec)
		}
		return nil
	})
	return res, err
}

func readBlock(txn *badger.Txn, height uint64) (*datasource.BlockRecord, error) {
	item, err := txn.Get(blockKey(height))
	if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decodeBlock(val)
}

func decodeBlock(val []byte) (*datasource.BlockRecord, error) {
	rec := new(datasource.BlockRecord)
	if err := decode(val, rec); err != nil {
		return nil, err
	}
	if len(rec.Transactions) == 0 {
		rec.Transactions = nil
	}
	return rec, nil
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++

func mapError(err error, name, key string) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return common.NewStoreErr(name, common.KeyNotFound, key)
	}
	return err
}
