// Package models defines the media catalog entities and the storage contracts they are persisted through.
//
// The package contains two categories of types:
//
// 1. Catalog entities written once by the upload pipelines and read by the player and API
//   - [Track] : a playable item (audio or video) as seen by the playback engine
//   - [Release] : a single, EP or album with a cover and ordered [TrackEntry] list
//   - [TopSong] : a featured song with artwork and a known duration
//   - [Video] : a gallery video with title and description
//   - [HomeSettings] : the homepage content document
//
// 2. Document store primitives
//   - [Document] and [Fields] : schemaless records grouped by collection
//   - [DocumentStore] : get/list/add/set/updateFields contract implemented by the repositories package
//   - [ServerTimestamp] : placeholder replaced with the store clock when a document is written
//
// Every entity implements [Record], which names its collection and renders its document fields.
// Field names follow the documents already stored by the public site (`songs`, `artwork`, `audioUrl`, ...).
package models
