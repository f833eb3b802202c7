package mqtt

import "github.com/rs/zerolog/log"

// DefaultBufferSize is how many messages are held while disconnected.
const DefaultBufferSize = 100

// message is a serialized publish waiting for a connection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable. When full it
// evicts the oldest QoS 0 message (button telemetry) before touching
// QoS 1 clock and lifecycle messages.
// Not safe for concurrent use; caller must synchronize.
type outbox struct {
	msgs     []message
	capacity int
	dropped  int // since the last take
}

func newOutbox(capacity int) *outbox {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &outbox{msgs: make([]message, 0, capacity), capacity: capacity}
}

func (o *outbox) add(m message) {
	if len(o.msgs) == o.capacity {
		victim := 0
		for i, queued := range o.msgs {
			if queued.qos == 0 {
				victim = i
				break
			}
		}
		if o.dropped == 0 {
			log.Warn().Int("capacity", o.capacity).Msg("mqtt outbox full, dropping messages")
		}
		o.dropped++
		o.msgs = append(o.msgs[:victim], o.msgs[victim+1:]...)
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox, returning its messages oldest first and how
// many were dropped to make room for them.
func (o *outbox) take() ([]message, int) {
	if len(o.msgs) == 0 {
		dropped := o.dropped
		o.dropped = 0
		return nil, dropped
	}
	out := make([]message, len(o.msgs))
	copy(out, o.msgs)
	o.msgs = o.msgs[:0]

	dropped := o.dropped
	o.dropped = 0
	return out, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
