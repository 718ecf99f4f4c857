// Package netlist holds the connectivity data model of a design: net classes,
// nets, buses, net ties and components with their pin→net connections, all
// owned by a Block.
//
// # Ownership
//
// A Block owns every object through keyed maps. Cross references between
// objects (a net's net class, a connection's net, a bus member's net, a diffpair
// partner) are non-owning Ref values: a stable id plus a cached pointer. After
// any bulk copy of the maps the cached pointers still point into the old
// container, so the copy must call UpdateRefs, which re-resolves every Ref by
// id against the Block's own maps. Clone does this unconditionally.
//
// # Consistency operations
//
//   - MergeNets joins two nets by repointing every connection
//   - ExtractPins moves a set of pins onto an existing or fresh net
//   - VacuumNets erases nets nothing refers to (power nets are kept)
//   - UpdateConnectionCount refreshes the transient per-net counters
//
// None of these operations validate caller preconditions such as "the net
// being merged away is not a bus member"; callers use CheckMerge for that.
//
// # Persistence
//
// Serialize writes the JSON form: keyed maps from id strings to records.
// Load reads it back, resolving net classes before nets and nets before
// components, and fails with an *IntegrityError on the first id that does not
// resolve.
package netlist
