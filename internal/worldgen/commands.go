package worldgen

import (
	"context"
	"fmt"
	"strings"
)

// Executor is the serialized game-server command channel. Exec runs one
// command; ExecBatch runs co-located placements back-to-back without the
// inter-command delay.
type Executor interface {
	Exec(ctx context.Context, command string) (string, error)
	ExecBatch(ctx context.Context, commands []string) error
}

// qualify prefixes the default namespace when the block id has none.
func qualify(block string) string {
	if strings.Contains(block, ":") {
		return block
	}
	return "minecraft:" + block
}

// Fill builds a bulk region fill command.
func Fill(x1, y1, z1, x2, y2, z2 int, block string) string {
	return fmt.Sprintf("fill %d %d %d %d %d %d %s", x1, y1, z1, x2, y2, z2, qualify(block))
}

// SetBlock builds a single block placement command.
func SetBlock(x, y, z int, block string) string {
	return fmt.Sprintf("setblock %d %d %d %s", x, y, z, qualify(block))
}

// ForceloadAdd keeps the chunks covering the block region loaded.
func ForceloadAdd(x1, z1, x2, z2 int) string {
	return fmt.Sprintf("forceload add %d %d %d %d", x1, z1, x2, z2)
}

// ForceloadRemove releases chunks claimed with ForceloadAdd.
func ForceloadRemove(x1, z1, x2, z2 int) string {
	return fmt.Sprintf("forceload remove %d %d %d %d", x1, z1, x2, z2)
}

// SetWorldSpawn sets the world spawn point.
func SetWorldSpawn(x, y, z int) string {
	return fmt.Sprintf("setworldspawn %d %d %d", x, y, z)
}

// Tellraw broadcasts a colored chat message to all players.
func Tellraw(text, color string) string {
	return fmt.Sprintf(`tellraw @a {"text":%q,"color":%q}`, text, color)
}

// DataMergeBlock merges SNBT into a block entity.
func DataMergeBlock(x, y, z int, snbt string) string {
	return fmt.Sprintf("data merge block %d %d %d %s", x, y, z, snbt)
}
