// Package perslc coordinates the shutdown of a persistence layer with the
// GENIVI Node State Manager.
//
// A process that owns persistence resources (open files, embedded databases
// and storage plugins) registers as a shutdown client of the Node State
// Manager. When the manager sends a LifecycleRequest for a normal shutdown,
// perslc answers immediately, tears the resources down on a dedicated worker
// goroutine and reports LifecycleRequestComplete once everything is flushed
// and closed.
//
// # Basic Usage
//
//	import "github.com/giantswarm/perslc"
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	c, err := perslc.Connect(ctx, perslc.WithBus(perslc.SessionBus))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	p := c.Persistence()
//	slot, err := p.OpenDatabase(ctx, "/var/lib/app/settings.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := c.Register(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Access After Shutdown
//
// Every Persistence operation holds a shared access lock. During teardown
// the lock is held exclusively, so operations block; once teardown finished
// they fail with ErrAccessClosed. Teardown happens at most once per
// Coordinator.
package perslc
