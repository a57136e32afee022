// Package tasks drives timed work around the rotation: the auto-advance countdown.
//
// # Auto-advance
//
// [AdvanceController] consumes playback signals ([models.PlaybackState]) and decides who sings next:
//
//  1. Playing : the singer under the cursor is recorded as having performed; a pending
//     countdown is cancelled because a performance was started by hand
//  2. Stopped / EndOfMedia : the rotation is searched one lap forward for the first singer with an
//     unplayed song, and the result is captured behind a countdown ([PendingAdvance])
//  3. Countdown elapses : the capture is re-validated, handed to the [Performer], marked played and
//     the cursor moves; a stale capture is abandoned quietly
//
// [AdvanceController.Cancel] and [AdvanceController.PlayNow] always win over a pending advance.
// Countdown callbacks carry a ticket so a late callback for a cancelled or committed advance does nothing.
//
// # Events
//
// Transitions are reported as [AdvanceEvent] values on a buffered channel.
// Sends use select with default to prevent blocking.
//
// # Time
//
// The controller reads time through [shared.Clock] and runs callbacks through a [Dispatcher], so
// tests can drive the countdown with a fake clock and hosts can run callbacks on their event loop.
package tasks
