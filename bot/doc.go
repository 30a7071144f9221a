// Package bot is the ingestion side: it answers commands, keeps the account
// table current and turns accepted media messages into queued jobs.
//
// Media longer than Config.MaxDuration is rejected before a job exists.
// The Poller long-polls getUpdates and gives every update its own deadline.
package bot
