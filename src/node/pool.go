package node

import "sync"

// transactionPool holds submitted transactions until they are decided.
type transactionPool struct {
	sync.Mutex
	txs [][]byte
}

func (p *transactionPool) add(tx []byte) int {
	p.Lock()
	defer p.Unlock()
	p.txs = append(p.txs, tx)
	return len(p.txs)
}

// take removes and returns up to max transactions in submission order.
func (p *transactionPool) take(max int) [][]byte {
	p.Lock()
	defer p.Unlock()

	n := len(p.txs)
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}

	batch := make([][]byte, n)
	copy(batch, p.txs[:n])
	p.txs = append([][]byte{}, p.txs[n:]...)
	return batch
}

func (p *transactionPool) len() int {
	p.Lock()
	defer p.Unlock()
	return len(p.txs)
}
