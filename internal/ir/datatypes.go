package ir

// XSD is the XML Schema datatype namespace.
const XSD = "http://www.w3.org/2001/XMLSchema#"

// xsdTypes maps XSD datatype IRIs to property graph type names.
// Read-only after init.
var xsdTypes = map[string]string{
	XSD + "string":   "string",
	XSD + "integer":  "integer",
	XSD + "int":      "integer",
	XSD + "long":     "integer",
	XSD + "float":    "float",
	XSD + "double":   "float",
	XSD + "decimal":  "float",
	XSD + "boolean":  "boolean",
	XSD + "date":     "date",
	XSD + "dateTime": "datetime",
}

// GraphType returns the property graph type name for a datatype IRI.
// Unknown datatypes map to their local name.
func GraphType(datatypeIRI string) string {
	if t, ok := xsdTypes[datatypeIRI]; ok {
		return t
	}
	return LocalName(datatypeIRI)
}
