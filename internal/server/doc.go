// Package server provides HTTP routing, middleware and the read-only catalog API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Catalog API
//
// [CatalogHandler] serves the published catalog as JSON:
//
//	GET /api/songs            top songs, newest first
//	GET /api/releases?kind=   releases, optionally one kind (single, ep, album)
//	GET /api/videos           gallery videos, newest first
//	GET /api/settings         homepage settings
//
// Errors are returned as {"error": "..."} with a matching status code.
//
// # Media
//
// When blobs are stored on the local filesystem, [NewMediaHandler] serves the blob root under /media/ so the
// URLs written into records resolve against the same server.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
