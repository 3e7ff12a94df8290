package renderer

import (
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

type TargetKind uint8

const (
	// TargetBackbuffer is the physical, presentable output surface.
	TargetBackbuffer TargetKind = iota
	// TargetOffscreen is a texture created with render-target access.
	TargetOffscreen
)

func (k TargetKind) String() string {
	if k == TargetBackbuffer {
		return "backbuffer"
	}
	return "offscreen"
}

// RenderTarget is an entry of the render-target stack.
type RenderTarget struct {
	Kind    TargetKind
	Texture *Texture
}

// Backbuffer is the sentinel target at the floor of every stack.
func Backbuffer() RenderTarget {
	return RenderTarget{Kind: TargetBackbuffer}
}

// Offscreen wraps a texture as a target. Validation happens when pushed.
func Offscreen(t *Texture) RenderTarget {
	if t == nil {
		return Backbuffer()
	}
	return RenderTarget{Kind: TargetOffscreen, Texture: t}
}

func (t RenderTarget) IsBackbuffer() bool {
	return t.Kind == TargetBackbuffer
}

// Valid reports whether the target may be bound.
func (t RenderTarget) Valid() bool {
	if t.Kind == TargetBackbuffer {
		return true
	}
	return t.Texture != nil && t.Texture.Exists() && t.Texture.Access() == metadata.TextureAccessTarget
}

// TargetStack keeps the chain of bound targets. The backbuffer is its floor
// and can never be popped.
type TargetStack struct {
	entries []RenderTarget
}

func NewTargetStack() *TargetStack {
	return &TargetStack{
		entries: []RenderTarget{Backbuffer()},
	}
}

func (s *TargetStack) Push(t RenderTarget) {
	core.Assert(t.Valid(), "Trying to set a render target to non target texture")
	s.entries = append(s.entries, t)
}

func (s *TargetStack) Pop() RenderTarget {
	core.Assert(len(s.entries) > 1, "Attempted removing the main renderer")
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top
}

func (s *TargetStack) Top() RenderTarget {
	return s.entries[len(s.entries)-1]
}

func (s *TargetStack) Depth() int {
	return len(s.entries)
}

// Reset drops every entry above the floor.
func (s *TargetStack) Reset() {
	s.entries = s.entries[:1]
}
