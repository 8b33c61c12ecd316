package registry

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestUpdate(t *testing.T) {
	r := New(4)

	for _, tc := range []struct {
		entry Entry
		slot  int
	}{
		{Entry{10, 100}, 0},
		{Entry{20, 110}, 1},
		{Entry{10, 120}, 0},
		{Entry{30, 130}, 2},
		{Entry{20, 140}, 1},
	} {
		slot, err := r.Update(tc.entry)
		if err != nil {
			t.Fatalf("%+v: %+v\n", tc.entry, err)
		}
		if slot != tc.slot {
			t.Fatalf("%+v: expected slot %d got %d\n", tc.entry, tc.slot, slot)
		}
	}

	expt := []Entry{{10, 120}, {20, 140}, {30, 130}}
	if !reflect.DeepEqual(r.Entries(), expt) {
		t.Fatalf("Expected %+v got %+v\n", expt, r.Entries())
	}

	if r.Len() != 3 || r.Cap() != 4 {
		t.Fatalf("unexpected size: %d/%d\n", r.Len(), r.Cap())
	}
}

func TestFull(t *testing.T) {
	r := New(2)
	r.Update(Entry{1, 0})
	r.Update(Entry{2, 0})

	slot, err := r.Update(Entry{3, 0})
	if errors.Cause(err) != ErrFull || slot != -1 {
		t.Fatalf("Expected ErrFull got %d %+v\n", slot, err)
	}

	// Known sensors still update once full.
	if slot, err := r.Update(Entry{2, 5}); err != nil || slot != 1 {
		t.Fatalf("Expected slot 1 got %d %+v\n", slot, err)
	}

	if r.IndexOf(3) != -1 {
		t.Fatal("rejected sensor must not be stored")
	}
}

func TestEntriesCopy(t *testing.T) {
	r := New(1)
	r.Update(Entry{7, 1})

	entries := r.Entries()
	entries[0].Timestamp = 99

	if r.Entries()[0].Timestamp != 1 {
		t.Fatal("Entries must return a copy")
	}
}
