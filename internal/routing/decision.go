package routing

// Kind classifies a routing decision.
type Kind int

const (
	// Unknown means the name is absent from the manifest: a build mismatch
	// or a plain local function. Callers execute locally.
	Unknown Kind = iota
	// Local means the owning resource is this process.
	Local
	// Remote means the function lives on another endpoint.
	Remote
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// RoutingInfo describes how to reach a remote function. Computed per query,
// never persisted.
type RoutingInfo struct {
	ResourceName   string
	// EndpointURL may be empty when the owning resource's URL has not been
	// learned yet; that is "not yet discovered", distinct from Local.
	EndpointURL    string
	IsLoadBalanced bool
	HTTPMethod     string
	HTTPPath       string
}

// Decision is the three-state answer to "where does this run". Info is
// populated only for Remote.
type Decision struct {
	Kind Kind
	Info *RoutingInfo
}
