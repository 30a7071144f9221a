// Package component defines the lifecycle contract shared by the store, the
// worker, the Telegram poller and the admin server, plus a Registry that
// starts them in order and stops them in reverse.
package component
