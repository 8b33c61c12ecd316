// Package registry tracks the most recent report of each sensor in a fixed
// number of slots.
package registry

import "github.com/pkg/errors"

// ErrFull is returned when a new sensor arrives and every slot is taken.
var ErrFull = errors.New("registry full")

type Entry struct {
	Serial    uint8
	Timestamp uint32
}

// A Registry is a fixed capacity list of entries, unique by Serial. Slots are
// assigned in order of first appearance and never move. A Registry is not
// safe for concurrent use.
type Registry struct {
	entries []Entry
}

func New(capacity int) *Registry {
	return &Registry{entries: make([]Entry, 0, capacity)}
}

// IndexOf returns the slot holding serial, or -1.
func (r *Registry) IndexOf(serial uint8) int {
	for idx, e := range r.entries {
		if e.Serial == serial {
			return idx
		}
	}
	return -1
}

// Update replaces the entry for e.Serial, or inserts it into the next free
// slot, and returns the slot.
func (r *Registry) Update(e Entry) (int, error) {
	if idx := r.IndexOf(e.Serial); idx != -1 {
		r.entries[idx] = e
		return idx, nil
	}

	if len(r.entries) == cap(r.entries) {
		return -1, errors.Wrapf(ErrFull, "serial %d", e.Serial)
	}

	r.entries = append(r.entries, e)
	return len(r.entries) - 1, nil
}

func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) Cap() int {
	return cap(r.entries)
}

// Entries returns a copy of the entries in slot order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}
