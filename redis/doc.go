// Package redis wraps go-redis with the project's logging, configuration
// and component lifecycle.
//
// TypedStore adds JSON-serialized values under a key prefix:
//
//	results := redis.NewTypedStore[Entry](client, "transcribot:result")
//	results.Save(ctx, fingerprint, &entry, 24*time.Hour)
package redis
