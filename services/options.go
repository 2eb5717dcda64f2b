package services

import "time"

// RejoinPolicy decides whether an existing LEFT row blocks a new join.
type RejoinPolicy string

const (
	// RejoinBlockAnyRow treats any existing row, ACTIVE or LEFT, as already joined.
	RejoinBlockAnyRow RejoinPolicy = "any_row"
	// RejoinBlockActiveOnly lets a user who withdrew join again; the LEFT row
	// is replaced in the same transaction.
	RejoinBlockActiveOnly RejoinPolicy = "active_only"
)

type options struct {
	now      func() time.Time
	loc      *time.Location
	rejoin   RejoinPolicy
	notifier CompletionNotifier
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the zone used to decide calendar days.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithRejoinPolicy(p RejoinPolicy) Option {
	return func(o *options) {
		if p != "" {
			o.rejoin = p
		}
	}
}

func WithCompletionNotifier(n CompletionNotifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

func applyOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		loc:    time.UTC,
		rejoin: RejoinBlockAnyRow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
