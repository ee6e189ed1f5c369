// Package storage provides the durable key-value persistence used by the
// engine's result history.
//
// It currently supports:
//   - A dependency-free file backend (JSON snapshot + atomic rename)
//   - An optional SQLite backend (build with -tags sqlite)
package storage
