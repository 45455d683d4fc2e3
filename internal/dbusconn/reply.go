package dbusconn

import (
	"sync"

	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/sentinel"
	"github.com/godbus/dbus/v5"
)

// ErrAlreadyReplied is returned when a call is answered twice.
const ErrAlreadyReplied = sentinel.Error("call already answered")

// replier answers one inbound method call. It implements nsm.Replier.
type replier struct {
	msg  *dbus.Message
	send func(*dbus.Message) error

	once sync.Once
}

var _ nsm.Replier = (*replier)(nil)

func (r *replier) noReply() bool {
	return r.msg.Flags&dbus.FlagNoReplyExpected != 0
}

// ReplyStatus sends a method return carrying status as an int32.
func (r *replier) ReplyStatus(status nsm.ErrorStatus) error {
	return r.reply(newMethodReturn(r.msg, int32(status)))
}

// ReplyError sends an error reply named name with cause as its message.
func (r *replier) ReplyError(name string, cause error) error {
	text := name
	if cause != nil {
		text = cause.Error()
	}
	return r.reply(newErrorReply(r.msg, name, text))
}

func (r *replier) reply(msg *dbus.Message) error {
	first := false
	r.once.Do(func() { first = true })
	if !first {
		return ErrAlreadyReplied
	}
	if r.noReply() {
		return nil
	}
	return r.send(msg)
}

// newMethodReturn builds the method return for call with body args.
func newMethodReturn(call *dbus.Message, args ...any) *dbus.Message {
	msg := &dbus.Message{
		Type:    dbus.TypeMethodReply,
		Headers: replyHeaders(call),
		Body:    args,
	}
	if len(args) > 0 {
		msg.Headers[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(args...))
	}
	return msg
}

// newErrorReply builds an error reply for call.
func newErrorReply(call *dbus.Message, name, text string) *dbus.Message {
	h := replyHeaders(call)
	h[dbus.FieldErrorName] = dbus.MakeVariant(name)
	h[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(text))
	return &dbus.Message{
		Type:    dbus.TypeError,
		Headers: h,
		Body:    []any{text},
	}
}

func replyHeaders(call *dbus.Message) map[dbus.HeaderField]dbus.Variant {
	h := map[dbus.HeaderField]dbus.Variant{
		dbus.FieldReplySerial: dbus.MakeVariant(call.Serial()),
	}
	if v, ok := call.Headers[dbus.FieldSender]; ok {
		h[dbus.FieldDestination] = v
	}
	return h
}
