package worldgen

import "context"

// Generator builds world structures through the serialized command
// channel. All geometry derives from the Layout; all block placement goes
// through the Executor, batched per construction step.
type Generator struct {
	exec Executor
	l    Layout
}

// New creates a Generator.
func New(exec Executor, l Layout) *Generator {
	return &Generator{exec: exec, l: l}
}

// Layout exposes the generator's placement math.
func (g *Generator) Layout() Layout { return g.l }

// Announce broadcasts a chat message to everyone online.
func (g *Generator) Announce(ctx context.Context, text, color string) error {
	_, err := g.exec.Exec(ctx, Tellraw(text, color))
	return err
}
