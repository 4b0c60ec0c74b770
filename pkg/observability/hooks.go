// Package observability provides hooks for metrics and tracing.
//
// Hooks let a deployment instrument the recompute pipeline and the document
// store without adding observability-framework dependencies to the core.
// Registration happens once at startup; every hook has a no-op default, so
// libraries can emit events unconditionally.
//
// # Usage
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetSyncHooks(&mySyncHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnPartition(ctx, nodeCount, viewCount, duration)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout pipeline.
type LayoutHooks interface {
	// OnPartition records a sub-view partitioning pass.
	OnPartition(ctx context.Context, nodeCount, viewCount int, duration time.Duration)

	// OnPosition records a positioning pass for one sub-view.
	OnPosition(ctx context.Context, graph goal.GraphID, nodeCount int, duration time.Duration)

	// OnHistory records a progress history recomputation.
	OnHistory(ctx context.Context, nodeCount, dayCount int, duration time.Duration)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the coordinator's mutation path.
type SyncHooks interface {
	// OnMutation records a local mutation by operation name.
	OnMutation(ctx context.Context, op string, cascadeSize int)

	// OnEchoSuppressed records an inbound change dropped as a self-echo.
	OnEchoSuppressed(ctx context.Context, origin string)

	// OnRemoteChange records an inbound change applied from another client.
	OnRemoteChange(ctx context.Context, origin string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store operations.
type StoreHooks interface {
	// OnFetch records a document fetch.
	OnFetch(ctx context.Context, backend string, duration time.Duration, err error)

	// OnWrite records a full-document write.
	OnWrite(ctx context.Context, backend string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnPartition(context.Context, int, int, time.Duration)           {}
func (NoopLayoutHooks) OnPosition(context.Context, goal.GraphID, int, time.Duration)   {}
func (NoopLayoutHooks) OnHistory(context.Context, int, int, time.Duration)             {}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnMutation(context.Context, string, int)    {}
func (NoopSyncHooks) OnEchoSuppressed(context.Context, string)   {}
func (NoopSyncHooks) OnRemoteChange(context.Context, string)     {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnFetch(context.Context, string, time.Duration, error) {}
func (NoopStoreHooks) OnWrite(context.Context, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	syncHooks   SyncHooks   = NoopSyncHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetSyncHooks registers custom sync hooks.
// This should be called once at application startup.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	syncHooks = NoopSyncHooks{}
	storeHooks = NoopStoreHooks{}
}
