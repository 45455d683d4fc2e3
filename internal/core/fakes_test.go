package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/giantswarm/perslc/internal/nsm"
)

var errInjected = errors.New("injected failure")

// events is a goroutine-safe ordered log shared by the fakes below.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, fmt.Sprintf(format, args...))
}

func (e *events) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

// index returns the position of the first entry equal to s, or -1.
func (e *events) index(s string) int {
	for i, v := range e.snapshot() {
		if v == s {
			return i
		}
	}
	return -1
}

func (e *events) count(s string) int {
	n := 0
	for _, v := range e.snapshot() {
		if v == s {
			n++
		}
	}
	return n
}

type fakeFile struct {
	ev       *events
	name     string
	closeErr error
}

func (f *fakeFile) Sync() error {
	f.ev.add("sync %s", f.name)
	return nil
}

func (f *fakeFile) Close() error {
	f.ev.add("close %s", f.name)
	return f.closeErr
}

type fakeDB struct {
	ev   *events
	name string
	err  error
}

func (d *fakeDB) Close() error {
	d.ev.add("close db %s", d.name)
	return d.err
}

type fakeLibrary struct {
	ev   *events
	name string
}

func (l *fakeLibrary) Release() error {
	l.ev.add("release %s", l.name)
	return nil
}

// sentCall is one outbound call captured by fakeSender.
type sentCall struct {
	method string
	args   []any
	ctxErr error
}

type fakeSender struct {
	ev      *events
	name    string
	nameErr error
	callErr error

	mu    sync.Mutex
	calls []sentCall
	sent  chan sentCall
}

func newFakeSender(ev *events) *fakeSender {
	return &fakeSender{ev: ev, name: ":1.42", sent: make(chan sentCall, 16)}
}

func (s *fakeSender) UniqueName() (string, error) {
	return s.name, s.nameErr
}

func (s *fakeSender) CallManager(ctx context.Context, method string, args ...any) error {
	c := sentCall{method: method, args: args, ctxErr: ctx.Err()}
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	if s.ev != nil {
		s.ev.add("call %s", method)
	}
	if s.callErr != nil {
		return s.callErr
	}
	select {
	case s.sent <- c:
	default:
	}
	return nil
}

func (s *fakeSender) callsTo(method string) []sentCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentCall
	for _, c := range s.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

// fakeTransport delivers calls pushed through deliver to the served handler.
type fakeTransport struct {
	*fakeSender
	calls    chan inbound
	serveErr error
}

type inbound struct {
	call    nsm.Call
	replier *fakeReplier
	outcome chan nsm.Outcome
}

func newFakeTransport(ev *events) *fakeTransport {
	return &fakeTransport{fakeSender: newFakeSender(ev), calls: make(chan inbound)}
}

func (t *fakeTransport) Serve(ctx context.Context, h nsm.Handler) error {
	if t.serveErr != nil {
		return t.serveErr
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-t.calls:
			in.outcome <- h.HandleCall(in.call, in.replier)
		}
	}
}

// deliver hands call to the running Serve loop and waits for the outcome.
func (t *fakeTransport) deliver(ctx context.Context, call nsm.Call) (*fakeReplier, nsm.Outcome, error) {
	in := inbound{call: call, replier: &fakeReplier{}, outcome: make(chan nsm.Outcome, 1)}
	select {
	case t.calls <- in:
	case <-ctx.Done():
		return nil, nsm.NotHandled, ctx.Err()
	}
	select {
	case o := <-in.outcome:
		return in.replier, o, nil
	case <-ctx.Done():
		return nil, nsm.NotHandled, ctx.Err()
	}
}

type fakeReplier struct {
	mu        sync.Mutex
	statuses []nsm.ErrorStatus
	errNames []string
	replyErr error
}

func (r *fakeReplier) ReplyStatus(status nsm.ErrorStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return r.replyErr
}

func (r *fakeReplier) ReplyError(name string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errNames = append(r.errNames, name)
	return r.replyErr
}

func lifecycleCall(args ...any) nsm.Call {
	return nsm.Call{
		Path:      nsm.LifecycleConsumerPath,
		Interface: nsm.LifecycleConsumerInterface,
		Member:    nsm.MethodLifecycleRequest,
		Sender:    ":1.7",
		Body:      args,
	}
}
