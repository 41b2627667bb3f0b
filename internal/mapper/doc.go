// Package mapper turns raw nested maps into typed object graphs.
//
// A map must have exactly one top-level key. The key names a node type
// (optionally qualified with its ancestors, "InvoiceRet/CustomerRef"),
// which is located in the template tree. The resulting graph is rooted at
// the container type with an empty instance for every type between the
// root and the target. The value under the key is wrapped recursively:
// scalars fill fields, maps fill single children and lists fill repeated
// children or repeated fields. Keys that match nothing are rejected.
package mapper
