// Package testutil holds grammars and helpers shared by package tests.
package testutil

import (
	"testing"

	"qbxml-mapper/internal/dtd"
	"qbxml-mapper/internal/schema"
)

// QBXMLGrammar is a trimmed qbXML operations grammar. CustomerRef is
// reachable through more than one path.
const QBXMLGrammar = `<?xml version="1.0" encoding="utf-8"?>
<!-- qbXML request/response subset -->
<!ENTITY % STRTYPE "(#PCDATA)">
<!ENTITY % IDTYPE "%STRTYPE;">

<!ELEMENT QBXML (QBXMLMsgsRq | QBXMLMsgsRs)>
<!ELEMENT QBXMLMsgsRq (InvoiceAddRq | CustomerQueryRq)*>
<!ATTLIST QBXMLMsgsRq onError (stopOnError | continueOnError) #REQUIRED>
<!ELEMENT QBXMLMsgsRs (InvoiceAddRs | CustomerQueryRs)*>

<!ELEMENT InvoiceAddRq (InvoiceAdd, IncludeRetElement*)>
<!ATTLIST InvoiceAddRq requestID CDATA #IMPLIED>
<!ELEMENT InvoiceAdd (CustomerRef, TxnDate?, RefNumber?, Memo?, InvoiceLineAdd*)>
<!ELEMENT CustomerRef (ListID?, FullName?)>
<!ELEMENT InvoiceLineAdd (ItemRef?, Desc?, Quantity?, Rate?)>
<!ELEMENT ItemRef (ListID?, FullName?)>

<!ELEMENT CustomerQueryRq (ListID*, FullName*, MaxReturned?)>
<!ATTLIST CustomerQueryRq requestID CDATA #IMPLIED>

<!ELEMENT InvoiceAddRs (InvoiceRet?)>
<!ATTLIST InvoiceAddRs
	requestID      CDATA #IMPLIED
	statusCode     CDATA #REQUIRED
	statusSeverity CDATA #REQUIRED
	statusMessage  CDATA #IMPLIED>
<!ELEMENT InvoiceRet (TxnID, CustomerRef, RefNumber?, Subtotal?)>
<!ELEMENT CustomerQueryRs (CustomerRet*)>
<!ATTLIST CustomerQueryRs
	requestID  CDATA #IMPLIED
	statusCode CDATA #REQUIRED>
<!ELEMENT CustomerRet (ListID, Name, FullName?, Balance?)>

<!ELEMENT ListID %IDTYPE;>
<!ELEMENT TxnID %IDTYPE;>
<!ELEMENT FullName %STRTYPE;>
<!ELEMENT Name %STRTYPE;>
<!ELEMENT TxnDate %STRTYPE;>
<!ELEMENT RefNumber %STRTYPE;>
<!ELEMENT Memo %STRTYPE;>
<!ELEMENT Desc %STRTYPE;>
<!ELEMENT Quantity %STRTYPE;>
<!ELEMENT Rate %STRTYPE;>
<!ELEMENT Subtotal %STRTYPE;>
<!ELEMENT Balance %STRTYPE;>
<!ELEMENT MaxReturned %STRTYPE;>
<!ELEMENT IncludeRetElement %STRTYPE;>
`

// InvoiceGrammar is the smallest grammar with a container and one entity.
const InvoiceGrammar = `
<!ELEMENT C (Invoice*)>
<!ELEMENT Invoice (amount, RefNumber)>
<!ELEMENT amount (#PCDATA)>
<!ELEMENT RefNumber (#PCDATA)>
`

// Compile compiles grammar and fails the test on error.
func Compile(t testing.TB, grammar string) *schema.Model {
	t.Helper()

	m, err := dtd.Compile([]byte(grammar), dtd.Options{})
	if err != nil {
		t.Fatalf("compile grammar: %v", err)
	}

	return m
}

// QBXML compiles QBXMLGrammar.
func QBXML(t testing.TB) *schema.Model {
	t.Helper()

	return Compile(t, QBXMLGrammar)
}

// Invoice compiles InvoiceGrammar.
func Invoice(t testing.TB) *schema.Model {
	t.Helper()

	return Compile(t, InvoiceGrammar)
}
