// Package bootstrap runs a service through its lifecycle:
//
//  1. start the registered infrastructure components in order
//  2. run OnStart hooks
//  3. run OnConfigure callbacks, which build and register the components
//     that depend on started infrastructure
//  4. start the newly registered components
//  5. ready check, OnReady hooks, startup summary
//  6. block until SIGINT/SIGTERM or context cancellation
//  7. OnStop hooks, then stop every component in reverse order
package bootstrap
