// Package storage is the scratch area where downloaded media and the
// engine's derived artifacts live while a job is processed.
//
// Backends register a factory under a provider name; storage/local is the
// only one and resolves keys to files under base_path. Absolute paths are
// used as given, so a job's recorded file path round-trips through the same
// interface.
//
//	storage:
//	  provider: local
//	  base_path: downloads
package storage
