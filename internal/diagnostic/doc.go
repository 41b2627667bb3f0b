// Package diagnostic provides structured errors and warnings collected while
// compiling a grammar.
//
// Key capabilities:
//   - Per-declaration errors with element name and line number
//   - Warnings for suspicious but legal declarations
//   - A single combined error value once collection is finished
package diagnostic
