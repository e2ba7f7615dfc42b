package poll

import "sync"

// Token identifies the identity and generation a fetch was issued for.
type Token struct {
	Key string
	Gen uint64
}

// Guard is a generation counter that decides whether a resolved response may
// still be applied. Every identity change advances the generation; responses
// captured under an older generation are stale.
type Guard struct {
	mu   sync.Mutex
	gen  uint64
	key  string
	live bool
}

// Begin starts a new generation for key, even if key is unchanged.
func (g *Guard) Begin(key string) Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.key = key
	g.live = true
	return Token{Key: key, Gen: g.gen}
}

// Enter returns the current token when key is already active, otherwise it
// begins a new generation for key.
func (g *Guard) Enter(key string) Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live && g.key == key {
		return Token{Key: key, Gen: g.gen}
	}
	g.gen++
	g.key = key
	g.live = true
	return Token{Key: key, Gen: g.gen}
}

// Invalidate makes every outstanding token stale.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.live = false
}

// Current returns the active token, if any.
func (g *Guard) Current() (Token, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Token{Key: g.key, Gen: g.gen}, g.live
}

// Valid reports whether t still belongs to the active generation.
func (g *Guard) Valid(t Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validLocked(t)
}

// Apply runs fn while holding the guard if t is still current, so no
// identity change can interleave with fn.
func (g *Guard) Apply(t Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.validLocked(t) {
		return false
	}
	fn()
	return true
}

func (g *Guard) validLocked(t Token) bool {
	return g.live && t.Gen == g.gen && t.Key == g.key
}
