// Package rotation implements the karaoke rotation engine.
//
// A [Session] owns the ordered singers, each singer's song queue and the current singer cursor.
// It is created once per database and handed to every component; there is no package state.
//
//   - [Rotation] : Adding singers under an [models.InsertionPolicy], removal, renames,
//     the cursor and regular-singer tracking
//   - [Queues] : Per-singer queues with played flags, key changes and cross-singer transfers
//   - [Reorder] : Moves driven by UI gestures, including tagged [DropPayload] values
//   - [Estimate] : Pure wait-time computation over a [Snapshot]
//
// Subscribers receive a [Change] after each committed mutation. Sends are non-blocking.
package rotation
