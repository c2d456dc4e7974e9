package worldgen

import (
	"context"
	"fmt"
)

// PinNote is a pinned chat message relayed onto an interior notice sign.
type PinNote struct {
	Author  string
	Content string
}

// UpdateBuilding refreshes a building's signage in place after a rename
// or topic change, optionally adding a pinned-message notice sign next to
// the topic sign. The structure itself is untouched.
func (g *Generator) UpdateBuilding(ctx context.Context, spec BuildingSpec, pin *PinNote) error {
	f := newFrame(g.l, spec)

	cmds := g.buildingSigns(spec, f)
	if pin != nil {
		cmds = append(cmds, SignCommand(f.bx-2, f.baseY+2, f.bz+f.half-1, "north", pinLines(*pin)))
	}
	if err := g.exec.ExecBatch(ctx, cmds); err != nil {
		return fmt.Errorf("update building %q: %w", spec.Name, err)
	}
	return nil
}

// pinLines renders a pin as a sign: header, author, then as much of the
// content as two lines hold.
func pinLines(p PinNote) [4]string {
	content := topicLines(p.Content)
	return [4]string{
		"[Pinned]",
		TruncateSignLine(p.Author),
		content[0],
		content[1],
	}
}
