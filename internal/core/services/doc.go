// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never touch storage or providers directly; every store,
// embedder, parser and summariser is injected at construction.
package services
