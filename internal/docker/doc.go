// Package docker provides Docker Engine API wrappers and container
// lifecycle management for the craftctl CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management for tagging the managed server
//     (Docker labels are the sole state storage mechanism)
//   - Server lifecycle operations: inspect, create, start, stop,
//     unpause, remove, logs
//   - The recovery plan that maps each lifecycle state to the ordered
//     actions needed to bring the server to running
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
