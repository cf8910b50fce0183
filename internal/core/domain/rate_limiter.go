// Package domain concentra entidades e estruturas centrais do servidor.
package domain

import "time"

// RateLimitRule permite Requests por Window. Um BlockDuration positivo mantém o
// identificador bloqueado por esse tempo depois que o limite é excedido.
type RateLimitRule struct {
	Requests      int
	Window        time.Duration
	BlockDuration time.Duration
}

type RateLimitRequest struct {
	// Scope separates independent limits sharing one storage ("guestbook").
	Scope    string
	Identity string
}

type Decision struct {
	Allowed      bool
	Identifier   string
	AppliedRule  RateLimitRule
	CurrentCount int64
}
