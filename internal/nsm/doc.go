// Package nsm describes the Node State Manager lifecycle protocol spoken by
// perslc: well-known bus names, object paths and interfaces, the shutdown
// type and error status enums, and the small transport abstractions (Call,
// Replier, Sender) that keep the handler and orchestrator independent of a
// concrete D-Bus binding.
package nsm
