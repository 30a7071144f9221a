// Package version reports the build of the running binary.
//
//	go build -ldflags "-X github.com/kbukum/transcribot/version.Version=1.2.0" ./cmd/transcribot
package version
