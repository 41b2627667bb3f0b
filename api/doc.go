// Package api is the entry point for converting between qbXML documents,
// typed object graphs and raw nested maps.
//
// An API is built once per grammar. New compiles the grammar (or restores
// it from the disk cache), warms the template tree and is then safe for
// concurrent use:
//
//	qb, err := api.New(ctx, api.Options{SchemaType: "qb", SchemaDir: "xml_schema"})
//	if err != nil {
//		return err
//	}
//
//	doc, err := qb.HashToQBXML(map[string]any{
//		"CustomerQueryRq": map[string]any{"MaxReturned": 10},
//	})
package api
