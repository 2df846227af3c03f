// Package model defines the domain types for the craftctl CLI.
//
// The central type is ServerState, the four-state lifecycle model of the
// managed Minecraft server container (running / paused / exited / absent),
// together with the recovery action each state requires to bring the
// server back to "running".
//
// Key design decision: craftctl keeps no state file of its own. Everything
// about the managed server is reconstructed at runtime from the Docker
// daemon (container inspection and labels) and from the data directory on
// disk, so these types are transient representations only.
package model
