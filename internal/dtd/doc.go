// Package dtd compiles a DTD-style grammar into a schema.Model.
//
// The supported subset covers what qbXML operation grammars use:
//
//	<!ENTITY % amt "(#PCDATA)">
//	<!ELEMENT QBXML (QBXMLMsgsRq)>
//	<!ELEMENT QBXMLMsgsRq (InvoiceAddRq | InvoiceQueryRq)*>
//	<!ATTLIST QBXMLMsgsRq onError (stopOnError | continueOnError) #REQUIRED>
//	<!ELEMENT InvoiceAddRq (InvoiceAdd)>
//	<!ELEMENT InvoiceAdd (RefNumber?, Amount, InvoiceLineAdd*)>
//	<!ELEMENT Amount %amt;>
//
// Elements whose content is (#PCDATA) are leaves and compile into scalar
// fields of every element that references them. All other elements become
// node types. Sequences, choices, nested groups and the ?, * and + occurrence
// indicators are flattened into a per-type cardinality; + compiles to
// Repeated and members of a choice become Optional.
//
// Mixed content, ANY, and namespaces are not supported.
//
// Compilation is all-or-nothing: every problem is collected into a
// GrammarError and no partial model is returned.
package dtd
