// Package transform re-encodes a single image: decode, uniform scale,
// right-edge trim, matte fill under transparency, JPEG encode. It is a pure
// function over the input bytes and the conversion settings.
package transform
