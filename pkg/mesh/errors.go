package mesh

import "errors"

// ErrSameNode is returned when a path is requested between a node and itself.
var ErrSameNode = errors.New("mesh: source and destination are the same node")

// ErrOutOfRange is returned when a router id falls outside the mesh bounds.
var ErrOutOfRange = errors.New("mesh: router id out of range")

// ErrNotNeighbors is returned when two routers are not mesh-adjacent but a
// single-hop move was requested between them.
var ErrNotNeighbors = errors.New("mesh: routers are not adjacent")
