package mongomemory

import "errors"

// ErrConfiguration indicates a missing URI, unknown backend, or invalid
// deployment profile detected at manager creation time.
var ErrConfiguration = errors.New("mongomemory: configuration error")

// ErrCapabilityAbsent indicates a server capability (transactions, change
// streams, fusion, auto-embedding) was probed and found unavailable.
var ErrCapabilityAbsent = errors.New("mongomemory: capability not available")

// ErrPathNotAllowed is the single opaque error surfaced by readFile for any
// path outside the allowed roots, any symlink, or any non-.md extension.
// It intentionally carries no detail about the rejected path.
var ErrPathNotAllowed = errors.New("mongomemory: path not allowed")
