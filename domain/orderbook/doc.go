// Package orderbook implements a deterministic single-symbol central
// limit order book with price-time priority matching. It maintains two
// red-black trees for bid and ask sides, an id index for O(1) cancel
// and amend, and an arena that owns all Order storage.
//
// The book is single-writer: one request is processed to completion
// before the next is accepted, so every invariant is a straight-line
// post-condition and replay of an identical request stream reproduces
// an identical trade stream.
package orderbook
