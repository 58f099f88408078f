package resilience

import (
	"context"
	"testing"
	"time"
)

func TestDefaultTimeoutConfig(t *testing.T) {
	config := DefaultTimeoutConfig()

	// Verify timeout hierarchy is correctly ordered
	if config.HTTPHandler <= config.Initiation {
		t.Errorf("HTTPHandler (%v) must be > Initiation (%v)", config.HTTPHandler, config.Initiation)
	}

	if config.HTTPHandler <= config.Webhook {
		t.Errorf("HTTPHandler (%v) must be > Webhook (%v)", config.HTTPHandler, config.Webhook)
	}

	if config.Initiation <= config.SecretFetch {
		t.Errorf("Initiation (%v) must be > SecretFetch (%v)", config.Initiation, config.SecretFetch)
	}

	// Verify production values
	if config.HTTPHandler != 15*time.Second {
		t.Errorf("Expected HTTPHandler = 15s, got %v", config.HTTPHandler)
	}

	if config.Webhook != 10*time.Second {
		t.Errorf("Expected Webhook = 10s, got %v", config.Webhook)
	}
}

func TestTestTimeoutConfig(t *testing.T) {
	config := TestTimeoutConfig()

	if config.HTTPHandler >= 5*time.Second {
		t.Errorf("Test timeouts should be < 5s, got %v", config.HTTPHandler)
	}

	// Verify hierarchy is still preserved in test config
	if config.HTTPHandler <= config.Initiation {
		t.Errorf("HTTPHandler (%v) must be > Initiation (%v)", config.HTTPHandler, config.Initiation)
	}

	if config.Webhook <= config.SecretFetch {
		t.Errorf("Webhook (%v) must be > SecretFetch (%v)", config.Webhook, config.SecretFetch)
	}
}

func TestContextHelpers(t *testing.T) {
	config := DefaultTimeoutConfig()

	tests := []struct {
		name string
		make func(context.Context) (context.Context, context.CancelFunc)
		want time.Duration
	}{
		{"handler", config.HandlerContext, config.HTTPHandler},
		{"initiation", config.InitiationContext, config.Initiation},
		{"webhook", config.WebhookContext, config.Webhook},
		{"secret", config.SecretContext, config.SecretFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.make(context.Background())
			defer cancel()

			deadline, ok := ctx.Deadline()
			if !ok {
				t.Fatal("context should have deadline")
			}

			diff := deadline.Sub(time.Now().Add(tt.want)).Abs()
			if diff > 100*time.Millisecond {
				t.Errorf("Deadline diff too large: %v", diff)
			}
		})
	}
}

func TestTimeoutHierarchyPreservation(t *testing.T) {
	config := DefaultTimeoutConfig()

	parent, parentCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer parentCancel()

	// Child asks for a longer timeout than the parent has left
	child, childCancel := config.WebhookContext(parent)
	defer childCancel()

	parentDeadline, _ := parent.Deadline()
	childDeadline, _ := child.Deadline()

	if childDeadline.After(parentDeadline) {
		t.Errorf("Child deadline (%v) should not be after parent deadline (%v)", childDeadline, parentDeadline)
	}
}

func TestWithoutCancelKeepsOwnDeadline(t *testing.T) {
	config := TestTimeoutConfig()

	parent, parentCancel := context.WithCancel(context.Background())
	parentCancel()

	ctx, cancel := config.WebhookContext(context.WithoutCancel(parent))
	defer cancel()

	if ctx.Err() != nil {
		t.Fatalf("detached context should not inherit cancellation, got %v", ctx.Err())
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Error("detached context should still carry the webhook deadline")
	}
}
