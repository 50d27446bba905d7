// Package archive packs named payloads into a single zip container with a
// fixed-level deflate compressor and fractional progress reporting.
package archive
