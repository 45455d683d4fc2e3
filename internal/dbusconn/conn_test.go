package dbusconn

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/godbus/dbus/v5"
	"k8s.io/apimachinery/pkg/util/wait"
)

// completion is one LifecycleRequestComplete received by the test manager.
type completion struct {
	requestID int32
	status    int32
}

// sessionManager claims the manager bus name on the session bus and records
// completions. The test is skipped when no session bus is reachable.
func sessionManager(t *testing.T) (*dbus.Conn, <-chan completion) {
	t.Helper()

	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus")
	}
	mgr, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus unavailable: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	reply, err := mgr.RequestName(nsm.BusName, dbus.NameFlagDoNotQueue)
	if err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		t.Skipf("cannot own %s on the session bus: reply %v, error %v", nsm.BusName, reply, err)
	}

	done := make(chan completion, 4)
	err = mgr.ExportMethodTable(map[string]any{
		nsm.MethodLifecycleRequestComplete: func(requestID, status int32) *dbus.Error {
			done <- completion{requestID: requestID, status: status}
			return nil
		},
	}, dbus.ObjectPath(nsm.ConsumerPath), nsm.ConsumerInterface)
	if err != nil {
		t.Fatalf("ExportMethodTable() error: %v", err)
	}
	return mgr, done
}

func TestConn_SessionBusRoundTrip(t *testing.T) {
	mgr, done := sessionManager(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Connect(SessionBus, nsm.LifecycleConsumerPath, nil)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer c.Close() //nolint:errcheck // test cleanup

	if err := c.WaitForName(ctx, nsm.BusName, 2*time.Second); err != nil {
		t.Fatalf("WaitForName() error: %v", err)
	}
	name, err := c.UniqueName()
	if err != nil {
		t.Fatalf("UniqueName() error: %v", err)
	}

	h := nsm.HandlerFunc(func(call nsm.Call, r nsm.Replier) nsm.Outcome {
		if call.Interface != nsm.LifecycleConsumerInterface || call.Member != nsm.MethodLifecycleRequest {
			return nsm.NotHandled
		}
		if err := r.ReplyStatus(nsm.StatusOK); err != nil {
			t.Errorf("ReplyStatus() error: %v", err)
		}
		return nsm.Handled
	})
	serveCtx, stop := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- c.Serve(serveCtx, h) }()

	consumer := mgr.Object(name, dbus.ObjectPath(nsm.LifecycleConsumerPath))
	method := nsm.LifecycleConsumerInterface + "." + nsm.MethodLifecycleRequest

	// Calls reaching the connection before Serve installed its channel get
	// the godbus default answer; retry until Serve answers.
	var status int32
	err = wait.PollUntilContextTimeout(ctx, 20*time.Millisecond, 5*time.Second, true,
		func(ctx context.Context) (bool, error) {
			err := consumer.CallWithContext(ctx, method, 0, uint32(nsm.ShutdownNormal), uint32(9)).Store(&status)
			return err == nil, nil
		})
	if err != nil {
		t.Fatalf("LifecycleRequest never answered: %v", err)
	}
	if nsm.ErrorStatus(status) != nsm.StatusOK {
		t.Errorf("LifecycleRequest status = %d, want %d", status, nsm.StatusOK)
	}

	err = consumer.CallWithContext(ctx, nsm.LifecycleConsumerInterface+".Bogus", 0).Err
	var derr dbus.Error
	if !errors.As(err, &derr) || derr.Name != errorUnknownMethod {
		t.Errorf("unknown method error = %v, want %s", err, errorUnknownMethod)
	}

	if err := c.CallManager(ctx, nsm.MethodLifecycleRequestComplete, int32(9), int32(nsm.StatusOK)); err != nil {
		t.Fatalf("CallManager() error: %v", err)
	}
	select {
	case got := <-done:
		if got.requestID != 9 || got.status != int32(nsm.StatusOK) {
			t.Errorf("completion = %+v, want (9, %d)", got, nsm.StatusOK)
		}
	case <-ctx.Done():
		t.Fatal("manager never received LifecycleRequestComplete")
	}

	stop()
	if err := <-served; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
