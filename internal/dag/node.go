package dag

// Node identifies one buildable image variant. It is an immutable value
// compared structurally; a graph never holds two nodes with the same tuple.
type Node struct {
	// Service is the service name.
	Service string `json:"service"`
	// Version is the resolved base version, without platform suffix.
	Version string `json:"version"`
	// Platform is the platform variant, empty for single-platform nodes.
	Platform string `json:"platform,omitempty"`
}

// Key returns the stable textual identifier used in the graph, on the CLI,
// and in diagnostics: service:version, or service:version:platform.
func (n Node) Key() string {
	if n.Platform == "" {
		return n.Service + ":" + n.Version
	}
	return n.Service + ":" + n.Version + ":" + n.Platform
}

// Tag returns the image tag for the node: version, or version-platform.
func (n Node) Tag() string {
	if n.Platform == "" {
		return n.Version
	}
	return n.Version + "-" + n.Platform
}

func (n Node) String() string {
	return n.Key()
}

// Edge is an ordered dependency pair: From depends on To.
type Edge struct {
	From Node
	To   Node
}
