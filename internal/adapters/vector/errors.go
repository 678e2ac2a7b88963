package vector

import "errors"

// Sentinel kinds for vector errors.
var (
	ErrSyntax           = errors.New("malformed svg document")
	ErrNoRoot           = errors.New("document has no svg root element")
	ErrInvalidAttribute = errors.New("invalid svg attribute")
	ErrNoSize           = errors.New("document has no intrinsic size")
	ErrAllocation       = errors.New("cannot allocate pixel buffer")
	ErrRaster           = errors.New("rasterize failed")
)
