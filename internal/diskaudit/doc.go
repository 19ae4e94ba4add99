// Package diskaudit provides storage usage auditing for a directory tree.
//
// It walks directory trees using fastwalk for parallel traversal, hashes
// file contents in bounded chunks across a worker pool, and aggregates
// the results into byte totals per extension, groups of duplicate files,
// and the K largest files.
package diskaudit
