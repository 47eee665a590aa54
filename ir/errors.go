package ir

import "errors"

// Array-data element widths outside {1, 4} are rejected: width 2/3 are not
// implemented, width 0 is impossible, and an uneven total length at width 4
// is a corrupt payload.
var (
	errArrayDataWidthUnsupported = errors.New("fill-array-data: element widths other than 1 or 4 are not implemented")
	errArrayDataZeroWidth        = errors.New("fill-array-data: element width 0 is not possible")
	errArrayDataUneven           = errors.New("fill-array-data: data length not a multiple of the element width")
)
