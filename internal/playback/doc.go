// package playback drives a single media element for the terminal player.
//
// An [Engine] owns exactly one [MediaElement] and at most one active track. Activating another track stops the
// current one first, so only one resource is ever producing sound. The engine works the same way for audio
// and video; the consumer picks the element and whether positions are remembered per id (the gallery).
//
// # States
//
//	Idle -> Loading -> Playing <-> Paused
//	Loading -> Errored
//	Playing -> Idle (end of track)
//
// Errored behaves like Idle. Auto-advance is not part of the engine: consumers react to [EventEnded].
//
// # Elements
//
// [ClockElement] simulates playback against a clock and is used for dry runs and tests. [FFPlayElement]
// plays through ffplay and reads durations with ffprobe.
package playback
