package loader

import (
	"context"
	"fmt"
)

// Token cancels a load cooperatively. Loaders call Check once per logical
// element; once a check fails every later check fails too.
type Token struct {
	ctx     context.Context
	poll    func() bool
	checks  int
	stopped error
}

// NewToken returns a token that stops when ctx is done or when poll, if not
// nil, returns false.
func NewToken(ctx context.Context, poll func() bool) *Token {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Token{ctx: ctx, poll: poll}
}

// Check returns ErrTimedOut once the load must stop. A nil token never stops.
func (t *Token) Check() error {
	if t == nil {
		return nil
	}
	if t.stopped != nil {
		return t.stopped
	}
	t.checks++
	if err := t.ctx.Err(); err != nil {
		t.stopped = fmt.Errorf("%w: %v", ErrTimedOut, err)
		return t.stopped
	}
	if t.poll != nil && !t.poll() {
		t.stopped = ErrTimedOut
		return t.stopped
	}
	return nil
}

// Checks is the number of checks performed before the token stopped.
func (t *Token) Checks() int {
	if t == nil {
		return 0
	}
	return t.checks
}
