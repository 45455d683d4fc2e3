package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/perslc/internal/nsm"
)

func TestRegistrar_Register(t *testing.T) {
	t.Parallel()

	sender := newFakeSender(nil)
	r := NewRegistrar(sender, nsm.LifecycleConsumerPath, 50*time.Second, nil)

	if err := r.Register(context.Background(), nsm.ShutdownNormal); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	calls := sender.callsTo(nsm.MethodRegisterShutdownClient)
	if len(calls) != 1 {
		t.Fatalf("RegisterShutdownClient calls = %d, want 1", len(calls))
	}
	want := []any{":1.42", nsm.LifecycleConsumerPath, uint32(nsm.ShutdownNormal), uint32(50000)}
	if got := calls[0].args; len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if calls[0].args[i] != want[i] {
			t.Errorf("args[%d] = %v (%T), want %v (%T)", i, calls[0].args[i], calls[0].args[i], want[i], want[i])
		}
	}
}

func TestRegistrar_Unregister(t *testing.T) {
	t.Parallel()

	sender := newFakeSender(nil)
	r := NewRegistrar(sender, "/custom/path", time.Second, nil)

	if err := r.Unregister(context.Background(), nsm.ShutdownNormal|nsm.ShutdownFast); err != nil {
		t.Fatalf("Unregister() error: %v", err)
	}

	calls := sender.callsTo(nsm.MethodUnRegisterShutdownClient)
	if len(calls) != 1 {
		t.Fatalf("UnRegisterShutdownClient calls = %d, want 1", len(calls))
	}
	want := []any{":1.42", "/custom/path", uint32(3)}
	for i := range want {
		if calls[0].args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, calls[0].args[i], want[i])
		}
	}
}

func TestRegistrar_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup func(s *fakeSender)
		call  func(r *Registrar) error
	}{
		"register without unique name": {
			setup: func(s *fakeSender) { s.nameErr = errInjected },
			call:  func(r *Registrar) error { return r.Register(context.Background(), nsm.ShutdownNormal) },
		},
		"register send failure": {
			setup: func(s *fakeSender) { s.callErr = errInjected },
			call:  func(r *Registrar) error { return r.Register(context.Background(), nsm.ShutdownNormal) },
		},
		"unregister without unique name": {
			setup: func(s *fakeSender) { s.nameErr = errInjected },
			call:  func(r *Registrar) error { return r.Unregister(context.Background(), nsm.ShutdownNormal) },
		},
		"unregister send failure": {
			setup: func(s *fakeSender) { s.callErr = errInjected },
			call:  func(r *Registrar) error { return r.Unregister(context.Background(), nsm.ShutdownNormal) },
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sender := newFakeSender(nil)
			tc.setup(sender)
			r := NewRegistrar(sender, nsm.LifecycleConsumerPath, time.Second, nil)

			if err := tc.call(r); !errors.Is(err, errInjected) {
				t.Errorf("error = %v, want errInjected", err)
			}
		})
	}
}
