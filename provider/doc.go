// Package provider is a small generic registry for swappable backends.
//
// A backend family defines its own interface embedding Provider, then
// registers one factory per implementation. The factory receives a typed
// config value, so selection by name happens once at startup:
//
//	reg := provider.NewRegistry[transcription.Provider, transcription.Config]()
//	reg.RegisterFactory("whisper", whisper.Factory(runner, log))
//	p, err := reg.Create(cfg.Provider, cfg)
package provider
