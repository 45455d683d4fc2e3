package dbusconn

import (
	"log/slog"

	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/godbus/dbus/v5"
)

// dispatcher turns inbound messages into nsm.Call values and answers them
// through send.
type dispatcher struct {
	path dbus.ObjectPath
	send func(*dbus.Message) error
	log  *slog.Logger
}

func (d dispatcher) dispatch(msg *dbus.Message, h nsm.Handler) {
	if msg.Type != dbus.TypeMethodCall {
		return
	}
	call := callFromMessage(msg)
	r := &replier{msg: msg, send: d.send}

	if dbus.ObjectPath(call.Path) != d.path {
		d.answerUnhandled(r, call, errorUnknownObject)
		return
	}
	if h.HandleCall(call, r) == nsm.Handled {
		return
	}
	d.answerUnhandled(r, call, errorUnknownMethod)
}

// answerUnhandled sends the standard error for a call nobody accepted so
// the caller is not left waiting for its timeout.
func (d dispatcher) answerUnhandled(r *replier, call nsm.Call, name string) {
	if r.noReply() {
		return
	}
	err := r.ReplyError(name, unknownCallError(call))
	if err != nil {
		d.log.Debug("failed to answer unhandled call",
			"path", call.Path, "interface", call.Interface, "member", call.Member, "error", err)
	}
}

// callFromMessage copies the routing headers and body of msg.
func callFromMessage(msg *dbus.Message) nsm.Call {
	call := nsm.Call{Body: msg.Body}
	if v, ok := msg.Headers[dbus.FieldPath]; ok {
		if p, ok := v.Value().(dbus.ObjectPath); ok {
			call.Path = string(p)
		}
	}
	call.Interface = stringHeader(msg, dbus.FieldInterface)
	call.Member = stringHeader(msg, dbus.FieldMember)
	call.Sender = stringHeader(msg, dbus.FieldSender)
	return call
}

func stringHeader(msg *dbus.Message, field dbus.HeaderField) string {
	v, ok := msg.Headers[field]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

type unknownCall nsm.Call

func (u unknownCall) Error() string {
	return "no handler for " + u.Interface + "." + u.Member + " on " + u.Path
}

func unknownCallError(call nsm.Call) error {
	return unknownCall(call)
}
