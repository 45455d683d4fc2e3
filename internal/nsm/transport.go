package nsm

import "context"

// Outcome tells the transport whether a handler consumed an inbound call.
type Outcome int

const (
	// NotHandled lets other handlers see the call. It is not an error.
	NotHandled Outcome = iota
	// Handled means the handler replied (or deliberately chose not to).
	Handled
)

// String returns the name of the outcome.
func (o Outcome) String() string {
	if o == Handled {
		return "Handled"
	}
	return "NotHandled"
}

// Call is an inbound method call, already stripped of its wire framing.
type Call struct {
	Path      string
	Interface string
	Member    string
	Sender    string
	Body      []any
}

// Replier answers exactly one inbound Call.
type Replier interface {
	// ReplyStatus sends a method return carrying a single int32.
	ReplyStatus(status ErrorStatus) error
	// ReplyError sends an error reply with the given D-Bus error name.
	ReplyError(name string, cause error) error
}

// Handler processes inbound calls delivered by a transport.
type Handler interface {
	HandleCall(call Call, r Replier) Outcome
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(call Call, r Replier) Outcome

// HandleCall calls f.
func (f HandlerFunc) HandleCall(call Call, r Replier) Outcome {
	return f(call, r)
}

// Sender issues outbound calls to the Node State Manager consumer object.
type Sender interface {
	// UniqueName returns this connection's unique bus name.
	UniqueName() (string, error)
	// CallManager sends method on ConsumerInterface at ConsumerPath of
	// BusName. It does not wait for a method return.
	CallManager(ctx context.Context, method string, args ...any) error
}

// Transport is a bus connection that can both deliver inbound calls and send
// outbound ones.
type Transport interface {
	Sender
	// Serve delivers inbound calls to h until ctx is done or the connection
	// fails.
	Serve(ctx context.Context, h Handler) error
}
