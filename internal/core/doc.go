// Package core implements the perslc shutdown coordinator: the Handler that
// admits lifecycle requests from the Node State Manager, the Orchestrator that
// tears down the persistence Runtime on a dedicated worker goroutine, the
// Registrar that subscribes this process as a shutdown consumer, and the
// Coordinator that runs the bus goroutine and the worker together.
package core
