// Package match ranks schema names by their similarity to a misspelled key.
//
// Names are normalized first (CamelCase split, case folded, separators
// dropped) and then compared with a normalized Levenshtein score, so
// "customer_ref" and "CustomerRef" are identical and "CustmerRef" is close.
package match
