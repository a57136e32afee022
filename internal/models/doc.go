// Package models defines domain entities and persistence interfaces for the kjx karaoke rotation.
//
// The package contains three categories of types:
//
// 1. Rotation entities: rows owned by the live show
//   - [Singer] : A singer in the rotation with a contiguous position
//   - [QueueEntry] : One song slot in a singer's ordered queue
//
// 2. Library and profile entities
//   - [Song] : Catalog metadata for a karaoke track
//   - [RegularSinger] : A persistent cross-show singer profile
//   - [RegularSong] : One ordered song in a regular singer's profile
//
// 3. Enumerations shared by the engine and its collaborators
//   - [InsertionPolicy] : Where a newly added singer is placed
//   - [PlaybackState] : Signals received from the media player
//
// All persisted entities implement the [Model] interface, and the [Repository] interface
// defines standard CRUD operations for database access.
package models
