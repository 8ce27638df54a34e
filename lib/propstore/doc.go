// Package propstore keeps the dead properties of WebDAV resources.
//
// Properties are stored per canonical resource path (see davlock.CanonicalPath)
// as a map from qualified name to the verbatim serialized XML value. The
// package does not parse XML; the protocol layer passes and receives the raw
// property elements.
//
// Besides single path reads and PROPPATCH style updates the store supports
// the subtree operations needed for DELETE, COPY and MOVE. Like the lock
// manager, every committed change is reported through Hooks, which is how
// filestore.PropertyStore keeps the properties on disk.
//
// Usage Example:
//
//	props := propstore.NewStore(nil)
//	name := davlock.QName{Space: "urn:example", Local: "color"}
//
//	_ = props.Set("/docs/a.txt", propstore.Properties{name: []byte(`<color xmlns="urn:example">red</color>`)}, nil)
//	_, _ = props.Move("/docs", "/archive/docs")
//
//	value, ok, _ := props.GetProperty("/archive/docs/a.txt", name)
package propstore
