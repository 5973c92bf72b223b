// Package idgen provides reusable id strategies for entity schemas.
//
// Every constructor returns a schema.IDFunc that can be passed to
// EntityBuilder.ComputeID.
//
// # Composite Ids
//
// Fields joins the formatted values of several fields:
//
//	ports := schema.Entity().
//	    Name("ports").
//	    ComputeID(idgen.Fields("host", "number"))
//	// {"host": "10.0.0.1", "number": 443} -> "10.0.0.1:443"
//
// # Context Ids
//
// Entities without an id of their own can be identified by where they were
// found. KeyScoped prefixes an inner id with the property key the entity
// was reached under, ParentScoped with a field of the enclosing record:
//
//	idgen.ParentScoped("id", idgen.Fields("slot"))
//	// parent {"id": 42}, input {"slot": "a"} -> "42:a"
//
// # Content Ids
//
// Content derives a name-based UUID (version 5) from a canonical rendering
// of the identifying fields, for records that are identified by their
// data alone.
//
// The canonical rendering sorts field names, trims string values, formats
// numbers with schema.FormatID (so 1 and 1.0 collide) and marshals
// composite values to JSON. The same fields always produce the same id.
package idgen
