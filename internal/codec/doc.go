// Package codec reads and writes qbXML documents against a compiled schema.
//
// Parse walks the markup with an element stack. Every element is resolved
// against the declaration of the element that contains it, so a name that
// is legal under one parent is rejected under another. Text-only elements
// and attributes fill the fields of the enclosing node.
//
// Serialize writes the reverse: attribute fields as markup attributes,
// then element fields and single children in content-model order, then
// repeated children, each list in insertion order.
package codec
