package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MahdiBaghbani/containers-sub001/internal/builder"
)

// FakeBuilder is a configurable backend for integration tests. It records
// every build request and answers freshness probes from the Images and
// Remote maps.
type FakeBuilder struct {
	mu       sync.Mutex
	requests []builder.Request

	// Images maps an image ref to the definition hash stored on it. A ref
	// present here exists locally; its value answers label lookups.
	Images map[string]string
	// Remote lists refs whose registry manifest exists.
	Remote map[string]bool
	// FailTags maps a primary tag to the error its build should return.
	FailTags map[string]error
}

func NewFakeBuilder() *FakeBuilder {
	return &FakeBuilder{
		Images:   make(map[string]string),
		Remote:   make(map[string]bool),
		FailTags: make(map[string]error),
	}
}

var fakeSeq atomic.Int64

// RegisterFake registers a fresh fake backend under a unique name and
// returns both. The builder registry has no unregister, so each test gets
// its own entry.
func RegisterFake(t *testing.T) (string, *FakeBuilder) {
	t.Helper()
	fake := NewFakeBuilder()
	name := fmt.Sprintf("fake-%d", fakeSeq.Add(1))
	builder.Register(name, func(builder.Options) (builder.Builder, error) {
		return fake, nil
	})
	return name, fake
}

func (f *FakeBuilder) Build(ctx context.Context, req builder.Request) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if len(req.Tags) > 0 {
		if err, ok := f.FailTags[req.Tags[0]]; ok {
			return err
		}
	}
	return nil
}

// Requests returns a copy of every build request seen so far, in order.
func (f *FakeBuilder) Requests() []builder.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]builder.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *FakeBuilder) ImageExists(_ context.Context, ref string) (bool, error) {
	_, ok := f.Images[ref]
	return ok, nil
}

func (f *FakeBuilder) ImageLabel(_ context.Context, ref, _ string) (string, error) {
	return f.Images[ref], nil
}

func (f *FakeBuilder) RemoteManifestExists(_ context.Context, ref string) (bool, error) {
	return f.Remote[ref], nil
}

func (f *FakeBuilder) Ping(context.Context) error { return nil }
