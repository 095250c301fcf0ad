// Package sequencer implements the three per-exchange update-id dialects of
// spec.md §4.1 as a pure state machine over uint64s: no I/O, no knowledge of
// wire formats. Each dialect maps its exchange's documented replay rules
// onto an Outcome (Accept/Drop) or an InvalidSequence error (the fail case)
// so the Transformer carries no
// exchange-specific branching, per the design note in spec.md §9.
package sequencer

import "github.com/voltbridge/marketcore/marketerr"

// Outcome is the decision a Sequencer makes about an incoming update.
type Outcome int

// Possible validate() outcomes.
const (
	Accept Outcome = iota
	Drop
)

// Sequencer validates a stream of per-instrument updates and decides
// whether each should be applied, dropped as stale/duplicate, or rejected
// as a sequencing gap.
type Sequencer interface {
	// Validate consumes one update's sequence fields and returns Accept or
	// Drop, or a non-nil error (always a *marketerr.InvalidSequence) on a
	// gap.
	Validate(u Update) (Outcome, error)
	// IsFirstUpdate reports whether no update has been accepted yet.
	IsFirstUpdate() bool
}

// Update carries the sequence fields a dialect needs. Not every field is
// meaningful for every dialect; see the per-dialect doc comments.
type Update struct {
	// Seq is the single monotonic id (single-ID and prev-seq dialects).
	Seq uint64
	// PrevSeq is the exchange-asserted previous id (prev-seq dialect only).
	PrevSeq uint64
	// First and Last are the update's first/last ids (pair-ID dialect only).
	First uint64
	Last  uint64
}

// --- Single-ID monotonic (Bybit, Coinbase, futures) -----------------------

// SingleID implements the single-sequence-number dialect: drop if
// seq<=last, accept and advance if seq==last+1, otherwise fail.
type SingleID struct {
	last             uint64
	updatesProcessed uint64
}

// NewSingleID creates a SingleID sequencer from the initial snapshot's
// sequence number.
func NewSingleID(snapshotSeq uint64) *SingleID {
	return &SingleID{last: snapshotSeq}
}

// Validate implements Sequencer.
func (s *SingleID) Validate(u Update) (Outcome, error) {
	switch {
	case u.Seq <= s.last:
		return Drop, nil
	case u.Seq == s.last+1:
		s.last = u.Seq
		s.updatesProcessed++
		return Accept, nil
	default:
		return Drop, marketerr.NewInvalidSequence(s.last, u.Seq)
	}
}

// IsFirstUpdate implements Sequencer.
func (s *SingleID) IsFirstUpdate() bool { return s.updatesProcessed == 0 }

// LastSequence returns the most recently accepted sequence number.
func (s *SingleID) LastSequence() uint64 { return s.last }

// --- First/last pair with snapshot pivot (spot order-book-update feeds) ---

// PairID implements the first/last update-id dialect. The first update
// after the snapshot must straddle snapshotLast+1; subsequent updates must
// chain U == prev_u+1.
type PairID struct {
	snapshotLast     uint64
	prevLast         uint64
	updatesProcessed uint64
}

// NewPairID creates a PairID sequencer from the initial snapshot's last
// update id.
func NewPairID(snapshotLast uint64) *PairID {
	return &PairID{snapshotLast: snapshotLast, prevLast: snapshotLast}
}

// Validate implements Sequencer.
func (p *PairID) Validate(u Update) (Outcome, error) {
	if p.updatesProcessed == 0 {
		if u.First <= p.snapshotLast+1 && u.Last >= p.snapshotLast+1 {
			p.prevLast = u.Last
			p.updatesProcessed++
			return Accept, nil
		}
		if u.Last <= p.snapshotLast {
			return Drop, nil
		}
		return Drop, marketerr.NewInvalidSequence(p.snapshotLast, u.First)
	}

	if u.Last <= p.prevLast {
		return Drop, nil
	}
	if u.First == p.prevLast+1 {
		p.prevLast = u.Last
		p.updatesProcessed++
		return Accept, nil
	}
	return Drop, marketerr.NewInvalidSequence(p.prevLast, u.First)
}

// IsFirstUpdate implements Sequencer.
func (p *PairID) IsFirstUpdate() bool { return p.updatesProcessed == 0 }

// LastUpdateID returns the most recently accepted "last" update id.
func (p *PairID) LastUpdateID() uint64 { return p.prevLast }

// --- prev-seq chained (OKX-style) -----------------------------------------

// PrevSeqChained implements the OKX-style dialect: accept iff the update's
// asserted previous sequence matches what was last applied.
type PrevSeqChained struct {
	last             uint64
	updatesProcessed uint64
}

// NewPrevSeqChained creates a PrevSeqChained sequencer from the initial
// snapshot's sequence number.
func NewPrevSeqChained(snapshotSeq uint64) *PrevSeqChained {
	return &PrevSeqChained{last: snapshotSeq}
}

// Validate implements Sequencer.
func (c *PrevSeqChained) Validate(u Update) (Outcome, error) {
	if u.Seq < c.last {
		return Drop, nil
	}
	if u.PrevSeq == c.last {
		c.last = u.Seq
		c.updatesProcessed++
		return Accept, nil
	}
	return Drop, marketerr.NewInvalidSequence(c.last, u.Seq)
}

// IsFirstUpdate implements Sequencer.
func (c *PrevSeqChained) IsFirstUpdate() bool { return c.updatesProcessed == 0 }

// LastSequence returns the most recently accepted sequence number.
func (c *PrevSeqChained) LastSequence() uint64 { return c.last }
