// Package runtimeinfo answers "where is this process running" from the
// environment the platform injects into deployed containers.
package runtimeinfo

import "os"

// Environment variables describing the current endpoint.
const (
	// ResourceNameEnvVar names the resource config this endpoint was
	// deployed as. Set by the deploy pipeline.
	ResourceNameEnvVar = "FNMESH_RESOURCE_NAME"
	// EndpointIDEnvVar is the provider-assigned endpoint id, present in
	// every deployed container.
	EndpointIDEnvVar = "ENDPOINT_ID"
	// EnvironmentIDEnvVar identifies the coordination-service environment
	// owning this deployment's canonical manifest.
	EnvironmentIDEnvVar = "FNMESH_ENVIRONMENT_ID"
)

// CurrentIdentity resolves the identity string used to recognize "this
// function is local": the deploy-time resource name, falling back to the
// provider-assigned endpoint id. Empty when neither is set (local dev).
func CurrentIdentity() string {
	if name := os.Getenv(ResourceNameEnvVar); name != "" {
		return name
	}
	return os.Getenv(EndpointIDEnvVar)
}

// EnvironmentID returns the coordination environment id, or "".
func EnvironmentID() string {
	return os.Getenv(EnvironmentIDEnvVar)
}

// IsDeployed reports whether this process runs in a deployed container, as
// opposed to local development.
func IsDeployed() bool {
	return os.Getenv(EndpointIDEnvVar) != ""
}
