// Package layout computes 2D coordinates for an ER graph.
//
// [Build] runs a fixed pipeline over an [er.Graph]. Every stage takes the
// coordinates of the previous one and returns a fresh map:
//
//  1. Skeleton: entities and relationship nodes only. The built-in
//     [ChainProvider] lays the longest path of each component on a line and
//     fans the branches out above and below it. An injected
//     [SkeletonProvider] can replace it; on failure the engine falls back
//     to the chain heuristic and says so in the [Report].
//  2. Force relaxation with truncated repulsion, one-way springs, centroid
//     gravity and a two-phase annealing schedule. Main-chain nodes are
//     pinned.
//  3. Post-processing: branch reprojection, triplet straightening,
//     relationship midpoint snapping, even side spacing and overlap
//     resolution, then the chain is restored to its anchors.
//  4. Attribute placement on one orbit per entity, avoiding the directions
//     of its relationships.
//  5. Disconnected components are spread on a circle.
//  6. A final separation pass over every node.
//
// The result is centered on the origin.
//
// # Tiers
//
// A [Config] carries every tunable. [Preset] returns the defaults for a
// [Level] and [Select] picks the level from graph size. Larger graphs never
// get fewer iterations or smaller margins. [Escalate] widens a config for
// a retry round.
//
// # Determinism
//
// Build keeps no state between calls and uses no randomness: pair loops run
// in identifier order and every perturbation is hashed from a node
// identifier. Identical input gives identical output.
package layout
