package worldgen

import (
	"context"
	"fmt"
)

const (
	crossroadsAvenueLength = 30
	crossroadsAvenueHalf   = 2 // 5-wide avenues
)

// Crossroads builds the central hub at world origin: striped plaza,
// 3-tier fountain, four tree-lined avenues, 16 radial station slots,
// welcome signs, the tour trigger plate, the info kiosk, and finally the
// world spawn point.
func (g *Generator) Crossroads(ctx context.Context) error {
	baseY := g.l.BaseY
	r := g.l.CrossroadsPlazaRadius

	load := r + crossroadsAvenueLength + 5
	if _, err := g.exec.Exec(ctx, ForceloadAdd(-load, -load, load, load)); err != nil {
		return fmt.Errorf("crossroads forceload: %w", err)
	}

	steps := [][]string{
		g.crossroadsPlaza(baseY),
		g.crossroadsFountain(baseY),
		g.crossroadsAvenues(baseY),
		g.crossroadsStationSlots(baseY),
		g.crossroadsWelcomeSigns(baseY),
		g.crossroadsTourTrigger(baseY),
		g.crossroadsKiosk(baseY),
		{SetWorldSpawn(0, baseY+1, 0)},
	}
	for _, cmds := range steps {
		if err := g.exec.ExecBatch(ctx, cmds); err != nil {
			return fmt.Errorf("crossroads: %w", err)
		}
	}

	if _, err := g.exec.Exec(ctx, ForceloadRemove(-load, -load, load, load)); err != nil {
		return fmt.Errorf("crossroads forceload release: %w", err)
	}
	return nil
}

// crossroadsPlaza stripes the plaza with alternating stone bricks and
// polished andesite. One fill per row — per-block setblocks at this size
// would swamp the command channel.
func (g *Generator) crossroadsPlaza(baseY int) []string {
	r := g.l.CrossroadsPlazaRadius
	cmds := make([]string, 0, 2*r+1)
	for z := -r; z <= r; z++ {
		block := "stone_bricks"
		if (z+r)%2 == 1 {
			block = "polished_andesite"
		}
		cmds = append(cmds, Fill(-r, baseY, z, r, baseY, z, block))
	}
	return cmds
}

// crossroadsFountain builds the 15x15 3-tier fountain: an 11x11 base with
// a water moat, a 7x7 second tier with its own moat, a 3x3 third tier and
// a glowing central column.
func (g *Generator) crossroadsFountain(baseY int) []string {
	return []string{
		// base tier
		Fill(-7, baseY, -7, 7, baseY, 7, "stone_bricks"),
		Fill(-5, baseY+1, -5, 5, baseY+1, 5, "stone_bricks"),
		Fill(-4, baseY+1, -4, 4, baseY+1, 4, "water"),
		// second tier
		Fill(-3, baseY+2, -3, 3, baseY+2, 3, "stone_bricks"),
		Fill(-2, baseY+2, -2, 2, baseY+2, 2, "water"),
		// third tier
		Fill(-1, baseY+3, -1, 1, baseY+3, 1, "stone_bricks"),
		// column and cap
		SetBlock(0, baseY+4, 0, "stone_brick_wall"),
		SetBlock(0, baseY+5, 0, "stone_brick_wall"),
		SetBlock(0, baseY+6, 0, "glowstone"),
	}
}

// crossroadsAvenues extends the four 5-wide tree-lined avenues, with oak
// trees every 8 blocks, lantern posts at the midpoints, benches and
// flower beds.
func (g *Generator) crossroadsAvenues(baseY int) []string {
	r := g.l.CrossroadsPlazaRadius
	in := r + 1
	out := r + crossroadsAvenueLength
	ah := crossroadsAvenueHalf
	mid := r + crossroadsAvenueLength/2

	cmds := []string{
		Fill(-ah, baseY, -out, ah, baseY, -in, "stone_bricks"), // north
		Fill(-ah, baseY, in, ah, baseY, out, "stone_bricks"),   // south
		Fill(-out, baseY, -ah, -in, baseY, ah, "stone_bricks"), // west
		Fill(in, baseY, -ah, out, baseY, ah, "stone_bricks"),   // east
	}

	// trees flank each avenue every 8 blocks
	for d := in + 4; d <= out-2; d += 8 {
		for _, side := range []int{-(ah + 2), ah + 2} {
			cmds = append(cmds,
				g.oakTree(side, baseY, -d)...) // north avenue
			cmds = append(cmds,
				g.oakTree(side, baseY, d)...) // south avenue
			cmds = append(cmds,
				g.oakTree(-d, baseY, side)...) // west avenue
			cmds = append(cmds,
				g.oakTree(d, baseY, side)...) // east avenue
		}
	}

	// lantern posts at avenue midpoints
	for _, p := range [][2]int{{ah + 1, -mid}, {ah + 1, mid}, {-mid, ah + 1}, {mid, ah + 1}} {
		cmds = append(cmds,
			SetBlock(p[0], baseY+1, p[1], "oak_fence"),
			SetBlock(p[0], baseY+2, p[1], "lantern"),
		)
	}

	// stone stair benches facing the avenues
	for _, p := range [][2]int{{-(ah + 1), -mid}, {-(ah + 1), mid}} {
		cmds = append(cmds, SetBlock(p[0], baseY+1, p[1], "stone_stairs[facing=east]"))
	}
	for _, p := range [][2]int{{-mid, -(ah + 1)}, {mid, -(ah + 1)}} {
		cmds = append(cmds, SetBlock(p[0], baseY+1, p[1], "stone_stairs[facing=south]"))
	}

	return cmds
}

// oakTree places a 4-block trunk, a 3x3x2 leaf canopy, a top cap and four
// flowers at the base.
func (g *Generator) oakTree(x, baseY, z int) []string {
	return []string{
		Fill(x, baseY+1, z, x, baseY+4, z, "oak_log"),
		Fill(x-1, baseY+4, z-1, x+1, baseY+5, z+1, "oak_leaves"),
		SetBlock(x, baseY+6, z, "oak_leaves"),
		SetBlock(x+1, baseY+1, z, "poppy"),
		SetBlock(x-1, baseY+1, z, "dandelion"),
		SetBlock(x, baseY+1, z+1, "poppy"),
		SetBlock(x, baseY+1, z-1, "dandelion"),
	}
}

// crossroadsStationSlots builds the 16 evenly angled radial platforms on
// the plaza edge, each with a numbered sign.
func (g *Generator) crossroadsStationSlots(baseY int) []string {
	var cmds []string
	for slot := 0; slot < g.l.CrossroadsStationSlots; slot++ {
		x, z := g.l.SlotPosition(slot)
		cmds = append(cmds,
			Fill(x-2, baseY, z-1, x+2, baseY, z+1, "smooth_stone"),
			SignCommand(x, baseY+1, z+2, "south",
				[4]string{"", "Station", fmt.Sprintf("Slot %d", slot), ""}),
		)
	}
	return cmds
}

// crossroadsWelcomeSigns posts a welcome sign on a fence post at each
// avenue entrance.
func (g *Generator) crossroadsWelcomeSigns(baseY int) []string {
	out := g.l.CrossroadsPlazaRadius + crossroadsAvenueLength
	lines := [4]string{"Welcome to", "the Crossroads", "All villages", "connect here"}
	var cmds []string
	for _, e := range []struct {
		x, z   int
		facing string
	}{
		{0, -out, "north"},
		{0, out, "south"},
		{-out, 0, "west"},
		{out, 0, "east"},
	} {
		cmds = append(cmds,
			SetBlock(e.x, baseY+1, e.z, "oak_fence"),
			SignCommand(e.x, baseY+2, e.z, e.facing, lines),
		)
	}
	return cmds
}

// crossroadsTourTrigger places the pressure plate on a gold block that
// starts the guided tour.
func (g *Generator) crossroadsTourTrigger(baseY int) []string {
	return []string{
		SetBlock(0, baseY, 8, "gold_block"),
		SetBlock(0, baseY+1, 8, "stone_pressure_plate"),
	}
}

// crossroadsKiosk seeds the lectern info kiosk with the visitor's guide.
func (g *Generator) crossroadsKiosk(baseY int) []string {
	pages := []BookPage{
		{Text: "Welcome to the Crossroads!\n\nEvery chat category is a village, every channel a building.", Bold: true},
		{Text: "Follow an avenue to a station slot and ride a minecart to any village."},
		{Text: "Use /goto <channel> in chat to get the coordinates of any building.", Color: "dark_blue"},
	}
	return LecternBookCommands(8, baseY+1, 0, "west", "Visitor's Guide", "The Cartographers", pages)
}
