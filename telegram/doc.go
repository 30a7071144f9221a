// Package telegram is a minimal Bot API client: long polling, text replies,
// document uploads and file resolution.
package telegram
