// Package index defines the contract shared by the spatial indexes that
// resolve which simulation cells a ray passes through.
//
// An Index is built once over an immutable set of cell boxes and answers
// Query(ray) with the ray's path-length decomposition: one Segment per
// intersected cell, sorted by entry distance. Implementations:
//
//   - bvh: bounding-volume hierarchy, sublinear queries (production)
//   - flat: linear scan over every cell, the reference oracle
//
// Indexes are read-only after construction and safe for concurrent queries.
package index
