package sshclient

import "sync/atomic"

// WindowCell is a write-once slot holding the identifier of the window a
// channel belongs to. The reader goroutine tags every chunk of inbound data
// with its value.
type WindowCell struct {
	id atomic.Pointer[string]
}

// NewWindowCell returns a cell already holding id.
func NewWindowCell(id string) *WindowCell {
	c := &WindowCell{}
	c.Set(id)
	return c
}

// Set stores id if the cell is empty. Only the first call succeeds.
func (c *WindowCell) Set(id string) bool {
	return c.id.CompareAndSwap(nil, &id)
}

// Get returns the stored identifier and whether one has been set.
func (c *WindowCell) Get() (string, bool) {
	p := c.id.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}
