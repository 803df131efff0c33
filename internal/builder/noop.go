package builder

import (
	"context"
	"sync"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

func init() {
	Register("noop", func(Options) (Builder, error) {
		return NewNoop(), nil
	})
}

// Noop is a backend that builds nothing. It logs every request and keeps a
// record of them, which makes it the dry-run backend and a convenient test
// double.
type Noop struct {
	mu       sync.Mutex
	requests []Request
}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Build(ctx context.Context, req Request) error {
	ctxlog.FromContext(ctx).Info("Dry run, skipping build.", "tags", req.Tags)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, req)
	return nil
}

// Requests returns a copy of every build request seen so far.
func (n *Noop) Requests() []Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Request, len(n.requests))
	copy(out, n.requests)
	return out
}

func (n *Noop) ImageExists(context.Context, string) (bool, error) { return false, nil }

func (n *Noop) ImageLabel(context.Context, string, string) (string, error) { return "", nil }

func (n *Noop) RemoteManifestExists(context.Context, string) (bool, error) { return false, nil }

func (n *Noop) Ping(context.Context) error { return nil }
