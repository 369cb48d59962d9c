// Package node implements a single-validator sequencing engine.
//
// The engine runs views on a heartbeat. Each view ends with a ViewFinished
// event; when transactions are pending, the view first decides a signed
// block of up to MaxBlockTxs transactions and emits it in a Decide event.
// The heartbeat slows down while the transaction pool is empty.
//
// The engine satisfies consensus.Engine. NewInitHandle wraps its
// construction so that the bootstrap can inject the metrics sink of the
// query backend.
package node
