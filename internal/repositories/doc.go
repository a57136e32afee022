// Package repositories implements SQLite persistence for all domain entities.
//
// Ordered collections share one contract, [OrderedStore]: contiguous zero-based positions,
// optionally partitioned by an owning column, with atomic multi-item moves and an automatic
// repair pass when a verification after a write finds a gap or duplicate.
//
// Key Implementations:
//   - [SingerRepository] : Rotation singers ordered by position
//   - [QueueRepository] : Per-singer song queues, partitioned by singer_id
//   - [SongRepository] : Song catalog with durations
//   - [RegularRepository] : Regular singer profiles and their ordered songs
//   - [StateRepository] : Key/value rotation state, including the current singer cursor
//
// Every repository can be rebound to a transaction with WithTx, and [WithTx] runs a function
// inside one so compound rotation operations commit or roll back as a unit.
package repositories
