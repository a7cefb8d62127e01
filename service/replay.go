package service

import (
	"fmt"

	"minex/infra/wal"
)

// ReplayJournal feeds a recorded request stream back through an
// engine. Fed to a fresh engine with the same registered symbols and
// the same clock, it reproduces the identical trade sequence — the
// operational form of the determinism invariant.
func ReplayJournal(dir string, e *Engine) error {
	_, err := wal.Replay(dir, func(rec *wal.Record) error {
		switch rec.Type {
		case wal.RecordNew:
			req, err := wal.DecodeNewOrder(rec.Data)
			if err != nil {
				return err
			}
			_, _ = e.Submit(req)
		case wal.RecordCancel:
			req, err := wal.DecodeCancel(rec.Data)
			if err != nil {
				return err
			}
			_ = e.Cancel(req)
		case wal.RecordAmend:
			req, err := wal.DecodeAmend(rec.Data)
			if err != nil {
				return err
			}
			_ = e.Amend(req)
		default:
			return fmt.Errorf("service: unknown journal record type %d", rec.Type)
		}
		return nil
	})
	return err
}
