package resource

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHandleTable_AddAndCapacity(t *testing.T) {
	t.Parallel()

	tbl := NewHandleTable(2)
	for want := range 2 {
		id, err := tbl.Add(&fakeFile{})
		if err != nil {
			t.Fatalf("Add() error: %v", err)
		}
		if id != want {
			t.Errorf("Add() id = %d, want %d", id, want)
		}
	}
	if _, err := tbl.Add(&fakeFile{}); !errors.Is(err, ErrTableFull) {
		t.Errorf("Add() on full table error = %v, want ErrTableFull", err)
	}
	if _, err := tbl.Add(nil); err == nil {
		t.Error("Add(nil) expected error")
	}
}

func TestHandleTable_CloseFreesSlot(t *testing.T) {
	t.Parallel()

	tbl := NewHandleTable(2)
	f := &fakeFile{}
	id, _ := tbl.Add(f)
	if err := tbl.Close(id); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if f.syncs != 0 || f.closes != 1 {
		t.Errorf("syncs=%d closes=%d, want 0 and 1", f.syncs, f.closes)
	}
	if tbl.IsOpen(id) {
		t.Error("handle still open after Close")
	}
	if err := tbl.Close(id); !errors.Is(err, ErrNotOpen) {
		t.Errorf("second Close() error = %v, want ErrNotOpen", err)
	}
	if got, _ := tbl.Add(&fakeFile{}); got != id {
		t.Errorf("Add() after Close reused id %d, want %d", got, id)
	}
}

func TestHandleTable_FlushAndClose(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		file    *fakeFile
		wantErr bool
	}{
		"clean":       {file: &fakeFile{name: "a"}},
		"sync fails":  {file: &fakeFile{name: "a", syncErr: errInjected}, wantErr: true},
		"close fails": {file: &fakeFile{name: "a", closeErr: errInjected}, wantErr: true},
		"both fail":   {file: &fakeFile{name: "a", syncErr: errInjected, closeErr: errInjected}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var order []string
			tc.file.order = &order
			tbl := NewHandleTable(1)
			id, _ := tbl.Add(tc.file)

			err := tbl.FlushAndClose(id)
			if (err != nil) != tc.wantErr {
				t.Fatalf("FlushAndClose() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr && !errors.Is(err, errInjected) {
				t.Errorf("error %v does not wrap injected failure", err)
			}
			if want := []string{"sync a", "close a"}; !reflect.DeepEqual(order, want) {
				t.Errorf("call order = %v, want %v", order, want)
			}
			if tbl.IsOpen(id) {
				t.Error("handle still marked open")
			}
		})
	}
}

func TestHandleTable_InvalidID(t *testing.T) {
	t.Parallel()

	tbl := NewHandleTable(1)
	for _, id := range []int{-1, 1, 100} {
		if err := tbl.FlushAndClose(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("FlushAndClose(%d) error = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestHandleTable_OpenFile(t *testing.T) {
	t.Parallel()

	tbl := NewHandleTable(1)
	path := filepath.Join(t.TempDir(), "data.bin")

	id, err := tbl.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	if got := tbl.OpenIDs(); !reflect.DeepEqual(got, []int{id}) {
		t.Errorf("OpenIDs() = %v, want [%d]", got, id)
	}

	if _, err := tbl.OpenFile(filepath.Join(t.TempDir(), "b"), os.O_CREATE|os.O_RDWR, 0o600); !errors.Is(err, ErrTableFull) {
		t.Errorf("OpenFile() on full table error = %v, want ErrTableFull", err)
	}
	if err := tbl.FlushAndClose(id); err != nil {
		t.Errorf("FlushAndClose() error: %v", err)
	}
}
