// Package schema provides the compiled, in-memory representation of a qbXML
// grammar: a set of node-type descriptors indexed by name plus the designated
// container (root) type.
//
// A Model is built once, either by the grammar compiler (package dtd) or by
// restoring a snapshot (package cache), and is immutable afterwards. It is
// safe for concurrent read access from any number of goroutines.
//
// # Descriptors
//
// Every non-leaf grammar element becomes a NodeType. Leaf elements declared
// as (#PCDATA) and ATTLIST attributes do not get descriptors of their own;
// they become scalar Fields of the types that reference them:
//
//	<!ELEMENT Invoice (RefNumber?, Amount, Line*)>
//	<!ELEMENT RefNumber (#PCDATA)>
//	<!ELEMENT Amount (#PCDATA)>
//	<!ATTLIST Invoice requestID CDATA #IMPLIED>
//
// compiles to
//
//	Invoice
//	  fields:   RefNumber (element, optional), Amount (element, one),
//	            requestID (attribute, optional)
//	  children: Line (repeated)
//
// # Cardinality
//
//   - One      - exactly one occurrence
//   - Optional - zero or one occurrence
//   - Repeated - zero or more occurrences, kept in encounter order
package schema
