package datasource

import (
	"strings"
	"time"

	"github.com/mosaicnetworks/sequencer/src/consensus"
)

// BlockRecord is a decided block as stored by a backend.
type BlockRecord struct {
	Height       uint64   `json:"height"`
	View         uint64   `json:"view"`
	Hash         string   `json:"hash"`
	Signer       string   `json:"signer"`
	Signature    string   `json:"signature"`
	Timestamp    int64    `json:"timestamp"`
	Transactions [][]byte `json:"transactions"`
}

// NewBlockRecord places block at height.
func NewBlockRecord(height uint64, block *consensus.Block) *BlockRecord {
	return &BlockRecord{
		Height:       height,
		View:         block.View(),
		Hash:         NormaliseBlockHash(block.Hash),
		Signer:       block.Signer,
		Signature:    block.Signature,
		Timestamp:    block.Body.Timestamp,
		Transactions: block.Transactions(),
	}
}

// TransactionRecords returns one record per transaction of the block.
func (r *BlockRecord) TransactionRecords() []*TransactionRecord {
	res := make([]*TransactionRecord, len(r.Transactions))
	for i, tx := range r.Transactions {
		res[i] = &TransactionRecord{
			Hash:        consensus.TxHash(tx),
			BlockHeight: r.Height,
			Index:       i,
			Payload:     tx,
		}
	}
	return res
}

// TransactionRecord locates a transaction in a block.
type TransactionRecord struct {
	Hash        string `json:"hash"`
	BlockHeight uint64 `json:"block_height"`
	Index       int    `json:"index"`
	Payload     []byte `json:"payload"`
}

// Status summarises the events applied so far.
type Status struct {
	BlockHeight   uint64
	ViewsFinished uint64
	Decides       uint64
	// LastDecide is the timestamp of the latest Decide event, zero if none.
	LastDecide time.Time
}

// SuccessRate is the fraction of finished views that decided a block.
func (s Status) SuccessRate() float64 {
	if s.ViewsFinished == 0 {
		return 0
	}
	return float64(s.Decides) / float64(s.ViewsFinished)
}

// NormaliseBlockHash returns the 0X-prefixed uppercase form block hashes are
// stored under. The prefix is optional on input.
func NormaliseBlockHash(h string) string {
	up := strings.ToUpper(h)
	return "0X" + strings.TrimPrefix(up, "0X")
}

// NormaliseTxHash returns the lowercase, unprefixed form transaction hashes
// are stored under.
func NormaliseTxHash(h string) string {
	low := strings.ToLower(h)
	return strings.TrimPrefix(low, "0x")
}
