package events

// Queue buffers events until the state they describe is durable. Engines emit
// into the queue during an operation; the owner flushes it to the real emitter
// once the operation commits and resets it when the operation aborts, so the
// audit trail never claims a transfer that was rolled back.
type Queue struct {
	pending []Event
}

// NewQueue creates an empty event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Emit implements the Emitter interface.
func (q *Queue) Emit(evt Event) {
	if q == nil || evt == nil {
		return
	}
	q.pending = append(q.pending, evt)
}

// Flush delivers all buffered events to sink in emission order and empties
// the queue.
func (q *Queue) Flush(sink Emitter) {
	if q == nil {
		return
	}
	if sink != nil {
		for _, evt := range q.pending {
			sink.Emit(evt)
		}
	}
	q.pending = q.pending[:0]
}

// Reset drops all buffered events.
func (q *Queue) Reset() {
	if q == nil {
		return
	}
	q.pending = q.pending[:0]
}
