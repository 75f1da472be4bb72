package collab

import "time"

// historyLimit bounds the number of chat messages retained per entity key.
const historyLimit = 100

// historyRing is a bounded FIFO of the most recent chat messages for one
// entity key. Created lazily on first chat; idle rings are reclaimed by
// PruneIdle so the key space cannot grow without bound.
type historyRing struct {
	messages   []Message
	lastActive time.Time
}

func (r *historyRing) append(msg Message, now time.Time) {
	if len(r.messages) >= historyLimit {
		r.messages = r.messages[1:]
	}
	r.messages = append(r.messages, msg)
	r.lastActive = now
}

func (r *historyRing) snapshot() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
