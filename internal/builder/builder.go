package builder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Request describes one image build. All paths are absolute by the time a
// request reaches a backend.
type Request struct {
	// ContextDir is the primary build context.
	ContextDir string
	// Dockerfile is the path of the Dockerfile, relative to ContextDir.
	Dockerfile string
	// Tags are the full image references to apply, primary tag first.
	Tags []string
	// BuildArgs are passed through as --build-arg pairs.
	BuildArgs map[string]string
	// Contexts maps named build contexts to local directories.
	Contexts map[string]string
	// Labels are applied to the image.
	Labels map[string]string
	// Platforms lists target platforms in Docker syntax (linux/amd64). Empty
	// means the builder default.
	Platforms []string
	// Push publishes the image after a successful build; Load imports it
	// into the local image store instead.
	Push bool
	Load bool
}

// Builder is a container build backend.
type Builder interface {
	// Build runs one image build to completion.
	Build(ctx context.Context, req Request) error
	// ImageExists reports whether ref is present in the local image store.
	ImageExists(ctx context.Context, ref string) (bool, error)
	// ImageLabel returns the value of one label on a local image, or the
	// empty string when the label is absent.
	ImageLabel(ctx context.Context, ref, label string) (string, error)
	// RemoteManifestExists reports whether a manifest for ref is available
	// in its registry.
	RemoteManifestExists(ctx context.Context, ref string) (bool, error)
}

// Pinger is implemented by backends that can check their own availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildError wraps a backend failure for one request.
type BuildError struct {
	Tags []string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s: %v", strings.Join(e.Tags, ", "), e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Options configure a backend at construction time.
type Options struct {
	// Progress selects the build progress style (auto, plain, tty).
	Progress string
}

// Factory constructs a configured backend.
type Factory func(opts Options) (Builder, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a backend available under name. Registering the same name
// twice is a programming error.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("builder: backend %q registered twice", name))
	}
	factories[name] = f
}

// New resolves name to a configured backend.
func New(name string, opts Options) (Builder, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown build backend %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return f(opts)
}

// Names lists the registered backends in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
