// Package template builds the template tree of a schema model and discovers
// where a type name sits inside it.
//
// The template tree is a data-less instance of the container type: every
// child reference of every descriptor is expanded into its own tree node,
// so a type referenced from several parents appears at several positions.
// Positions are indexed in depth-first pre-order, which is also the order
// used to break ties between them.
//
// # Keys
//
// A lookup key is a type name, optionally qualified by its nearest
// ancestors to pick one position out of several:
//
//	CustomerRef                          first position in traversal order
//	InvoiceRet/CustomerRef               the CustomerRef directly under InvoiceRet
//	QBXMLMsgsRs/InvoiceAddRs/InvoiceRet  any longer suffix of the path
//
// # Policies
//
// FirstMatch (default) resolves an ambiguous key to its first position.
// Strict rejects it with ErrAmbiguous and lists the candidates.
package template
