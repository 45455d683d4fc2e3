// Package dbusconn adapts a godbus connection to the nsm.Transport interface.
//
// Inbound method calls are taken off the connection with Eavesdrop and
// dispatched to a single nsm.Handler, so the handler sees the raw argument
// list and decides itself how to answer malformed calls. Outbound calls to
// the Node State Manager are sent without waiting for a method return.
package dbusconn
