// Package cache persists compiled schema models between processes.
//
// A snapshot file holds a format version, the fingerprint of the grammar it
// was compiled from and the model itself. Load treats anything unusable
// (missing, corrupt, older format, different grammar) as a miss and never
// fails; callers recompile and Store a fresh snapshot. Writes go to a
// temporary file that is renamed into place, so readers never observe a
// partial snapshot and the last writer wins.
package cache
