package recorder

import "fmt"

// Recorder holds every life of a run in order. Exactly one log is open while
// a life is in progress; all earlier logs are sealed.
type Recorder struct {
	logs []*LifeLog
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

// Begin opens the log for the next life.
func (r *Recorder) Begin() (*LifeLog, error) {
	if cur := r.Current(); cur != nil && !cur.Sealed() {
		return nil, fmt.Errorf("begin life %d: %w", len(r.logs), ErrLogOpen)
	}
	l := NewLifeLog(len(r.logs))
	r.logs = append(r.logs, l)
	return l, nil
}

// Current returns the most recently opened log, or nil before the first life.
func (r *Recorder) Current() *LifeLog {
	if len(r.logs) == 0 {
		return nil
	}
	return r.logs[len(r.logs)-1]
}

// Append records a sample into the open log.
func (r *Recorder) Append(s Sample) error {
	cur := r.Current()
	if cur == nil {
		return ErrNoOpenLog
	}
	return cur.Append(s)
}

// Life returns the log for life index i.
func (r *Recorder) Life(i int) (*LifeLog, bool) {
	if i < 0 || i >= len(r.logs) {
		return nil, false
	}
	return r.logs[i], true
}

// Len returns the number of lives recorded so far, including the open one.
func (r *Recorder) Len() int { return len(r.logs) }

// Logs returns all logs in life order.
func (r *Recorder) Logs() []*LifeLog {
	out := make([]*LifeLog, len(r.logs))
	copy(out, r.logs)
	return out
}

// Sealed returns the logs of completed lives in life order.
func (r *Recorder) Sealed() []*LifeLog {
	out := make([]*LifeLog, 0, len(r.logs))
	for _, l := range r.logs {
		if l.Sealed() {
			out = append(out, l)
		}
	}
	return out
}
