// Package command carries shutdown requests from the bus goroutine to the
// shutdown worker.
//
// A Request travels as a single uint64 word: the request kind in bits 0-15,
// the status in bits 16-31 and the request ID in bits 32-63. Channel moves
// words with a non-blocking send and a blocking receive, so a word is either
// delivered whole or rejected.
package command
