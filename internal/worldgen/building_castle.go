package worldgen

import "fmt"

// castleBuilder produces the MedievalCastle style: cobblestone curtain
// walls with stone-brick trim, oak-log corner turrets, a crenellated
// parapet, arrow-slit windows, a throne room and an armory.
type castleBuilder struct{}

func (castleBuilder) walls(f frame) []string {
	h := f.half
	return []string{
		// bottom trim course
		Fill(f.bx-h, f.baseY+1, f.bz-h, f.bx+h, f.baseY+1, f.bz-h, "stone_bricks"),
		Fill(f.bx-h, f.baseY+1, f.bz+h, f.bx+h, f.baseY+1, f.bz+h, "stone_bricks"),
		Fill(f.bx-h, f.baseY+1, f.bz-h, f.bx-h, f.baseY+1, f.bz+h, "stone_bricks"),
		Fill(f.bx+h, f.baseY+1, f.bz-h, f.bx+h, f.baseY+1, f.bz+h, "stone_bricks"),
		// cobblestone body
		Fill(f.bx-h, f.baseY+2, f.bz-h, f.bx+h, f.wallTop-1, f.bz-h, "cobblestone"),
		Fill(f.bx-h, f.baseY+2, f.bz+h, f.bx+h, f.wallTop-1, f.bz+h, "cobblestone"),
		Fill(f.bx-h, f.baseY+2, f.bz-h, f.bx-h, f.wallTop-1, f.bz+h, "cobblestone"),
		Fill(f.bx+h, f.baseY+2, f.bz-h, f.bx+h, f.wallTop-1, f.bz+h, "cobblestone"),
		// top trim course
		Fill(f.bx-h, f.wallTop, f.bz-h, f.bx+h, f.wallTop, f.bz-h, "stone_bricks"),
		Fill(f.bx-h, f.wallTop, f.bz+h, f.bx+h, f.wallTop, f.bz+h, "stone_bricks"),
		Fill(f.bx-h, f.wallTop, f.bz-h, f.bx-h, f.wallTop, f.bz+h, "stone_bricks"),
		Fill(f.bx+h, f.wallTop, f.bz-h, f.bx+h, f.wallTop, f.bz+h, "stone_bricks"),
	}
}

// annex raises an oak-log turret with a slab cap at each corner.
func (castleBuilder) annex(f frame) []string {
	h := f.half
	var cmds []string
	for _, dx := range []int{-1, 1} {
		for _, dz := range []int{-1, 1} {
			x, z := f.bx+dx*h, f.bz+dz*h
			cmds = append(cmds,
				Fill(x, f.baseY+1, z, x, f.wallTop+2, z, "oak_log"),
				SetBlock(x, f.wallTop+3, z, "oak_slab"),
			)
		}
	}
	return cmds
}

func (castleBuilder) stairs(f frame) []string {
	return interiorStairs(f, "oak_stairs")
}

// roof lays the flat roof slab and the crenellated parapet: merlons every
// 2 blocks along all four edges.
func (castleBuilder) roof(f frame) []string {
	h := f.half
	y := f.wallTop + 1
	cmds := []string{
		Fill(f.bx-h, y, f.bz-h, f.bx+h, y, f.bz+h, "stone_bricks"),
	}
	for d := -h; d <= h; d += 2 {
		cmds = append(cmds,
			SetBlock(f.bx+d, y+1, f.bz-h, "stone_bricks"),
			SetBlock(f.bx+d, y+1, f.bz+h, "stone_bricks"),
			SetBlock(f.bx-h, y+1, f.bz+d, "stone_bricks"),
			SetBlock(f.bx+h, y+1, f.bz+d, "stone_bricks"),
		)
	}
	return cmds
}

// windows carves 1x2 arrow slits at the scaled {-6,-3,3,6} offsets on
// every wall and floor. The south-face center stays solid for the ground
// floor entrance; the slit offsets never touch it.
func (castleBuilder) windows(f frame) []string {
	h := f.half
	var cmds []string
	for i := 0; i < f.floors; i++ {
		y1 := f.floorY(i) + 2
		y2 := y1 + 1
		for _, base := range []int{-6, -3, 3, 6} {
			d := f.scaled(base)
			cmds = append(cmds,
				Fill(f.bx+d, y1, f.bz-h, f.bx+d, y2, f.bz-h, "air"),
				Fill(f.bx+d, y1, f.bz+h, f.bx+d, y2, f.bz+h, "air"),
				Fill(f.bx-h, y1, f.bz+d, f.bx-h, y2, f.bz+d, "air"),
				Fill(f.bx+h, y1, f.bz+d, f.bx+h, y2, f.bz+d, "air"),
			)
		}
	}
	return cmds
}

func (c castleBuilder) furniture(f frame, floor int) []string {
	switch {
	case floor == 0:
		return c.throneRoom(f)
	case floor == f.floors-1:
		return c.armory(f)
	}
	return nil
}

// throneRoom: red carpet runner from the door to a raised throne on the
// north wall, with a banquet bench along the west side.
func (castleBuilder) throneRoom(f frame) []string {
	in := f.half - 1
	y := f.baseY + 1
	return []string{
		Fill(f.bx-1, y, f.bz-in+2, f.bx+1, y, f.bz+in, "red_carpet"),
		Fill(f.bx-1, y, f.bz-in, f.bx+1, y, f.bz-in+1, "stone_bricks"), // dais
		SetBlock(f.bx, y+1, f.bz-in, "stone_brick_stairs[facing=south]"),
		Fill(f.bx-in, y, f.bz-in+2, f.bx-in, y, f.bz+in-2, "oak_slab"), // banquet bench
	}
}

// armory: anvil, smithing table, grindstone and a rank of armor stands.
func (castleBuilder) armory(f frame) []string {
	in := f.half - 1
	y := f.floorY(f.floors-1) + 1
	cmds := []string{
		SetBlock(f.bx-in, y, f.bz-in, "anvil"),
		SetBlock(f.bx-in+2, y, f.bz-in, "smithing_table"),
		SetBlock(f.bx-in+4, y, f.bz-in, "grindstone"),
	}
	for i := 0; i < 3; i++ {
		cmds = append(cmds, fmt.Sprintf("summon minecraft:armor_stand %d %d %d",
			f.bx+in-1, y, f.bz-in+2+i*2))
	}
	return cmds
}
