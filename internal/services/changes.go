package services

import "sync"

// Changes fans out "the transaction list changed" notifications, e.g. to
// drop cached statistics reports.
type Changes struct {
	mu  sync.Mutex
	fns []func()
}

func NewChanges() *Changes {
	return &Changes{}
}

// Subscribe registers fn to run after every change.
func (c *Changes) Subscribe(fn func()) {
	if c == nil || fn == nil {
		return
	}
	c.mu.Lock()
	c.fns = append(c.fns, fn)
	c.mu.Unlock()
}

func (c *Changes) notify() {
	if c == nil {
		return
	}
	c.mu.Lock()
	fns := append([]func(){}, c.fns...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
