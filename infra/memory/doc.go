// Package memory provides the low-level transport primitive between
// the matching thread and feed consumers: a bounded single-producer
// single-consumer ring buffer with no locks and no allocation after
// construction. A full ring is the back-pressure signal.
package memory
