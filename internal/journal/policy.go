package journal

import (
	"fmt"
)

// FrameDrop is one frame an observer's send queue refused.
type FrameDrop struct {
	Sequence uint64
	Reason   string
}

// Resync describes the loss that made a fresh keyframe due.
type Resync struct {
	Delivered uint64
	Dropped   uint64
	Drops     []FrameDrop
}

// A resync is due once dropped frames reach this share, in percent, of the
// frames delivered since the previous resync.
const resyncLossPercent = 1

const maxRecordedDrops = 8

// LossPolicy watches frame delivery to a single observer. It is not safe for
// concurrent use; sessions guard it with their own lock.
type LossPolicy struct {
	delivered uint64
	dropped   uint64
	due       bool
	drops     []FrameDrop
}

func NewLossPolicy() *LossPolicy {
	return &LossPolicy{drops: make([]FrameDrop, 0, maxRecordedDrops)}
}

func (p *LossPolicy) Delivered() {
	if p == nil {
		return
	}
	p.delivered++
}

// Dropped records a lost frame. Only the first few drops keep their detail.
func (p *LossPolicy) Dropped(sequence uint64, reason string) {
	if p == nil {
		return
	}
	p.dropped++
	if len(p.drops) < maxRecordedDrops {
		p.drops = append(p.drops, FrameDrop{Sequence: sequence, Reason: reason})
	}
	if p.due {
		return
	}
	// An observer that has received nothing yet needs a keyframe on any loss.
	p.due = p.delivered == 0 || p.dropped*100 >= p.delivered*resyncLossPercent
}

// Due hands out a pending resync and starts a new window.
func (p *LossPolicy) Due() (Resync, bool) {
	if p == nil || !p.due {
		return Resync{}, false
	}
	out := Resync{
		Delivered: p.delivered,
		Dropped:   p.dropped,
		Drops:     append([]FrameDrop(nil), p.drops...),
	}
	p.delivered, p.dropped, p.due = 0, 0, false
	p.drops = p.drops[:0]
	return out, true
}

func (r Resync) String() string {
	if r.Dropped == 0 {
		return "no frames dropped"
	}
	first := r.Drops[0]
	return fmt.Sprintf("dropped %d of %d frames, first seq %d (%s)", r.Dropped, r.Dropped+r.Delivered, first.Sequence, first.Reason)
}
