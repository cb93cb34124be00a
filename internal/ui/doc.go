// Package ui implements the terminal views using bubbletea's Elm architecture.
//
// [PlayerModel] lists tracks and drives a [playback.Engine]:
//   - enter toggles play/pause on the selected track (switching tracks if another one is active)
//   - n/p move through the queue, wrapping at both ends
//   - ←/→ seek by 5%, +/- change the volume, m mutes, s stops
//
// Engine events arrive on the channel returned by [NewEventSink]. End-of-track advances the queue only when
// autoplay is enabled; the engine itself never advances.
//
// [UploadModel] runs one upload submission and renders its weighted progress with a progress bar, then the
// outcome, including any blobs left in storage after a failure.
package ui
