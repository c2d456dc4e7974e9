package worldgen

import (
	"context"
	"fmt"
)

// VillageSpec describes a village to materialise.
type VillageSpec struct {
	Name         string
	CenterX      int
	CenterZ      int
	ChannelCount int
}

const (
	villagePlazaRadius = 15 // 31x31 plaza
	villageWallHeight  = 3
	villageGateHalf    = 1 // 3-wide openings at the cardinals
)

// Village builds the plaza, perimeter wall, fountain, walkway, lighting,
// name signs, welcome paths, outer fence and station pad. Step order is
// strict — downstream steps depend on upstream surfaces.
func (g *Generator) Village(ctx context.Context, v VillageSpec) error {
	cx, cz, baseY := v.CenterX, v.CenterZ, g.l.BaseY
	fence := g.l.FenceRadius

	load := fence + 5
	if _, err := g.exec.Exec(ctx, ForceloadAdd(cx-load, cz-load, cx+load, cz+load)); err != nil {
		return fmt.Errorf("village forceload: %w", err)
	}

	steps := [][]string{
		g.villagePlaza(cx, cz, baseY),
		g.villageWall(cx, cz, baseY),
		g.villageFountain(cx, cz, baseY, v.ChannelCount >= 4),
		g.villageWalkway(cx, cz, baseY),
		g.villageLighting(cx, cz, baseY),
		g.villageSigns(cx, cz, baseY, v),
		g.villagePaths(cx, cz, baseY),
		g.villageFence(cx, cz, baseY),
		g.villageStationPad(cx, cz, baseY),
	}
	for _, cmds := range steps {
		if err := g.exec.ExecBatch(ctx, cmds); err != nil {
			return fmt.Errorf("village %q: %w", v.Name, err)
		}
	}

	if _, err := g.exec.Exec(ctx, ForceloadRemove(cx-load, cz-load, cx+load, cz+load)); err != nil {
		return fmt.Errorf("village forceload release: %w", err)
	}
	return nil
}

func (g *Generator) villagePlaza(cx, cz, baseY int) []string {
	r := villagePlazaRadius
	return []string{Fill(cx-r, baseY, cz-r, cx+r, baseY, cz+r, "stone_bricks")}
}

// villageWall raises a 3-high stone brick wall on the plaza edge, then
// carves 3-wide openings at the four cardinals.
func (g *Generator) villageWall(cx, cz, baseY int) []string {
	r := villagePlazaRadius
	y1, y2 := baseY+1, baseY+villageWallHeight
	gh := villageGateHalf
	return []string{
		Fill(cx-r, y1, cz-r, cx+r, y2, cz-r, "stone_bricks"), // north
		Fill(cx-r, y1, cz+r, cx+r, y2, cz+r, "stone_bricks"), // south
		Fill(cx-r, y1, cz-r, cx-r, y2, cz+r, "stone_bricks"), // west
		Fill(cx+r, y1, cz-r, cx+r, y2, cz+r, "stone_bricks"), // east
		Fill(cx-gh, y1, cz-r, cx+gh, y2, cz-r, "air"),
		Fill(cx-gh, y1, cz+r, cx+gh, y2, cz+r, "air"),
		Fill(cx-r, y1, cz-gh, cx-r, y2, cz+gh, "air"),
		Fill(cx+r, y1, cz-gh, cx+r, y2, cz+gh, "air"),
	}
}

// villageFountain picks the 7x7 multi-tier variant for villages that will
// hold four or more buildings, the 3x3 basin otherwise.
func (g *Generator) villageFountain(cx, cz, baseY int, grand bool) []string {
	if !grand {
		return []string{
			Fill(cx-1, baseY+1, cz-1, cx+1, baseY+1, cz+1, "stone_bricks"),
			SetBlock(cx, baseY+1, cz, "water"),
			SetBlock(cx, baseY+2, cz, "glowstone"),
		}
	}
	return []string{
		Fill(cx-3, baseY+1, cz-3, cx+3, baseY+1, cz+3, "stone_bricks"),
		Fill(cx-2, baseY+1, cz-2, cx+2, baseY+1, cz+2, "water"),
		Fill(cx-1, baseY+2, cz-1, cx+1, baseY+2, cz+1, "stone_bricks"),
		SetBlock(cx, baseY+2, cz, "water"),
		SetBlock(cx, baseY+3, cz, "stone_brick_wall"),
		SetBlock(cx, baseY+4, cz, "glowstone"),
	}
}

// villageWalkway lays a cobblestone ring five blocks inside the fence.
func (g *Generator) villageWalkway(cx, cz, baseY int) []string {
	r := g.l.FenceRadius - 5
	w := 1 // 3-wide ring
	return []string{
		Fill(cx-r, baseY, cz-r-w, cx+r, baseY, cz-r+w, "cobblestone"),
		Fill(cx-r, baseY, cz+r-w, cx+r, baseY, cz+r+w, "cobblestone"),
		Fill(cx-r-w, baseY, cz-r, cx-r+w, baseY, cz+r, "cobblestone"),
		Fill(cx+r-w, baseY, cz-r, cx+r+w, baseY, cz+r, "cobblestone"),
	}
}

// villageLighting caps the wall corners with glowstone and dots the
// cardinal paths every 4 blocks.
func (g *Generator) villageLighting(cx, cz, baseY int) []string {
	r := villagePlazaRadius
	top := baseY + villageWallHeight + 1
	cmds := []string{
		SetBlock(cx-r, top, cz-r, "glowstone"),
		SetBlock(cx+r, top, cz-r, "glowstone"),
		SetBlock(cx-r, top, cz+r, "glowstone"),
		SetBlock(cx+r, top, cz+r, "glowstone"),
	}
	for d := r + 1; d < g.l.FenceRadius; d += 4 {
		cmds = append(cmds,
			SetBlock(cx+2, baseY, cz-d, "glowstone"),
			SetBlock(cx+2, baseY, cz+d, "glowstone"),
			SetBlock(cx-d, baseY, cz+2, "glowstone"),
			SetBlock(cx+d, baseY, cz+2, "glowstone"),
		)
	}
	return cmds
}

// villageSigns names the village on all four faces of the fountain basin.
func (g *Generator) villageSigns(cx, cz, baseY int, v VillageSpec) []string {
	fr := 1
	if v.ChannelCount >= 4 {
		fr = 3
	}
	lines := [4]string{"", v.Name, "Village", ""}
	y := baseY + 2
	return []string{
		SignCommand(cx, y, cz-fr-1, "north", lines),
		SignCommand(cx, y, cz+fr+1, "south", lines),
		SignCommand(cx-fr-1, y, cz, "west", lines),
		SignCommand(cx+fr+1, y, cz, "east", lines),
	}
}

// villagePaths runs 3-wide cobblestone from each wall opening out to the
// fence gate.
func (g *Generator) villagePaths(cx, cz, baseY int) []string {
	in := villagePlazaRadius + 1
	out := g.l.FenceRadius - 1
	gh := villageGateHalf
	return []string{
		Fill(cx-gh, baseY, cz-out, cx+gh, baseY, cz-in, "cobblestone"),
		Fill(cx-gh, baseY, cz+in, cx+gh, baseY, cz+out, "cobblestone"),
		Fill(cx-out, baseY, cz-gh, cx-in, baseY, cz+gh, "cobblestone"),
		Fill(cx+in, baseY, cz-gh, cx+out, baseY, cz+gh, "cobblestone"),
	}
}

// villageFence rings the village with oak fence and carves 3-wide gates at
// the cardinals.
func (g *Generator) villageFence(cx, cz, baseY int) []string {
	r := g.l.FenceRadius
	y := baseY + 1
	gh := villageGateHalf
	return []string{
		Fill(cx-r, y, cz-r, cx+r, y, cz-r, "oak_fence"),
		Fill(cx-r, y, cz+r, cx+r, y, cz+r, "oak_fence"),
		Fill(cx-r, y, cz-r, cx-r, y, cz+r, "oak_fence"),
		Fill(cx+r, y, cz-r, cx+r, y, cz+r, "oak_fence"),
		Fill(cx-gh, y, cz-r, cx+gh, y, cz-r, "air"),
		Fill(cx-gh, y, cz+r, cx+gh, y, cz+r, "air"),
		Fill(cx-r, y, cz-gh, cx-r, y, cz+gh, "air"),
		Fill(cx+r, y, cz-gh, cx+r, y, cz+gh, "air"),
	}
}

// villageStationPad lays the 9x5 pad on the south plaza edge where the
// track generator terminates.
func (g *Generator) villageStationPad(cx, cz, baseY int) []string {
	_, sz := g.l.VillageStation(cx, cz)
	return []string{
		Fill(cx-2, baseY, sz-4, cx+2, baseY, sz+4, "smooth_stone"),
	}
}
