// Command imgpress is a batch image converter and folder archiver. It
// scans dropped files into a persistent work queue, re-encodes images as
// JPEG, zips folders, and packages results for handoff.
package main
