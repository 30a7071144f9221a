// Package media downloads submitted media into scratch storage and
// fingerprints it for result deduplication.
package media
