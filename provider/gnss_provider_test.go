package provider

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ubports/location-service-sub002/gnss/receiver"
)

func TestGNSSProviderEnableDisableLifecycle(t *testing.T) {
	r := receiver.New(receiver.Config{Device: ""}, slog.Default(), nil)
	p := NewGNSSProvider(r)

	if p.State() != Disabled {
		t.Fatalf("want Disabled initially, got %v", p.State())
	}

	if err := p.Enable(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State() != Active {
		t.Errorf("want Active after Enable, got %v", p.State())
	}

	// Enabling an already-enabled provider must not spawn a second
	// reader goroutine or error out.
	if err := p.Enable(); err != nil {
		t.Fatalf("unexpected error re-enabling: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = p.Disable()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Disable did not return - receiver.Run failed to honour context cancellation")
	}

	if p.State() != Disabled {
		t.Errorf("want Disabled after Disable, got %v", p.State())
	}
}
