// Package diagnostic renders the typed failures raised by the schema
// reader and the runtime mapper (dterr.Error) into severity-tagged,
// user-facing diagnostics, independent of how many independent failures a
// single schema read or decode produced.
package diagnostic
