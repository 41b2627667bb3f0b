// Package object implements the typed object graph: a tree of Nodes, each
// bound to the schema.NodeType it instantiates.
//
// A Node only accepts the fields and children its descriptor declares, and
// only repeats the ones declared Repeated, so every reachable graph matches
// its schema. Scalars are kept as supplied (string, bool, integer or float
// kinds); documents produce strings, raw maps keep the caller's types.
//
// Nodes are not safe for concurrent mutation. A finished graph may be read
// from several goroutines.
package object
