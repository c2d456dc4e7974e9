package worldgen

// cottageBuilder produces the TimberCottage style: oak-log frame posts
// with birch plank infill, an A-frame roof, paned windows with flower
// boxes, a hearth kitchen and a study.
type cottageBuilder struct{}

func (cottageBuilder) walls(f frame) []string {
	h := f.half
	cmds := []string{
		// birch infill panels
		Fill(f.bx-h, f.baseY+1, f.bz-h, f.bx+h, f.wallTop, f.bz-h, "birch_planks"),
		Fill(f.bx-h, f.baseY+1, f.bz+h, f.bx+h, f.wallTop, f.bz+h, "birch_planks"),
		Fill(f.bx-h, f.baseY+1, f.bz-h, f.bx-h, f.wallTop, f.bz+h, "birch_planks"),
		Fill(f.bx+h, f.baseY+1, f.bz-h, f.bx+h, f.wallTop, f.bz+h, "birch_planks"),
	}
	// oak log frame: corner posts plus a mid post per wall
	for _, dx := range []int{-h, 0, h} {
		for _, dz := range []int{-h, h} {
			if dx == 0 && dz == h {
				continue // keep the south doorway span clear of posts
			}
			cmds = append(cmds, Fill(f.bx+dx, f.baseY+1, f.bz+dz, f.bx+dx, f.wallTop, f.bz+dz, "oak_log"))
		}
	}
	for _, dx := range []int{-h, h} {
		cmds = append(cmds, Fill(f.bx+dx, f.baseY+1, f.bz, f.bx+dx, f.wallTop, f.bz, "oak_log"))
	}
	return cmds
}

// Cottages carry no corner annex.
func (cottageBuilder) annex(f frame) []string { return nil }

func (cottageBuilder) stairs(f frame) []string {
	return interiorStairs(f, "birch_stairs")
}

// roof raises an A-frame of dark oak stairs, ridge running east-west,
// overhanging the walls by one block.
func (cottageBuilder) roof(f frame) []string {
	h := f.half
	var cmds []string
	for step := 0; step <= h; step++ {
		y := f.wallTop + 1 + step
		zn := f.bz - h - 1 + step
		zs := f.bz + h + 1 - step
		if zn >= zs {
			// ridge cap
			cmds = append(cmds, Fill(f.bx-h-1, y, f.bz, f.bx+h+1, y, f.bz, "dark_oak_planks"))
			break
		}
		cmds = append(cmds,
			Fill(f.bx-h-1, y, zn, f.bx+h+1, y, zn, "dark_oak_stairs[facing=south]"),
			Fill(f.bx-h-1, y, zs, f.bx+h+1, y, zs, "dark_oak_stairs[facing=north]"),
		)
	}
	return cmds
}

// windows cuts 2x2 glass pane windows, three per wall per floor, with
// trapdoor flower boxes under the ground-floor panes.
func (c cottageBuilder) windows(f frame) []string {
	h := f.half
	var cmds []string
	for i := 0; i < f.floors; i++ {
		y1 := f.floorY(i) + 2
		y2 := y1 + 1
		for _, base := range []int{-(10 - 3), 0, 10 - 3} {
			d := f.scaled(base)
			if i == 0 && d == 0 {
				// south center is the doorway; skip that pane only
				cmds = append(cmds,
					Fill(f.bx+d, y1, f.bz-h, f.bx+d+1, y2, f.bz-h, "glass_pane"),
					Fill(f.bx-h, y1, f.bz+d, f.bx-h, y2, f.bz+d+1, "glass_pane"),
					Fill(f.bx+h, y1, f.bz+d, f.bx+h, y2, f.bz+d+1, "glass_pane"),
				)
			} else {
				cmds = append(cmds,
					Fill(f.bx+d, y1, f.bz-h, f.bx+d+1, y2, f.bz-h, "glass_pane"),
					Fill(f.bx+d, y1, f.bz+h, f.bx+d+1, y2, f.bz+h, "glass_pane"),
					Fill(f.bx-h, y1, f.bz+d, f.bx-h, y2, f.bz+d+1, "glass_pane"),
					Fill(f.bx+h, y1, f.bz+d, f.bx+h, y2, f.bz+d+1, "glass_pane"),
				)
			}
			if i == 0 {
				cmds = append(cmds,
					SetBlock(f.bx+d, y1-1, f.bz-h-1, "oak_trapdoor[facing=north,open=true]"),
					SetBlock(f.bx+d+1, y1-1, f.bz-h-1, "oak_trapdoor[facing=north,open=true]"),
				)
			}
		}
	}
	return cmds
}

func (c cottageBuilder) furniture(f frame, floor int) []string {
	switch {
	case floor == 0:
		return c.hearthKitchen(f)
	case floor == f.floors-1:
		return c.study(f)
	}
	return nil
}

// hearthKitchen: campfire hearth with a chain chimney up through the
// roof, plus cauldron, crafting table, smoker and barrel along the west
// wall.
func (cottageBuilder) hearthKitchen(f frame) []string {
	in := f.half - 1
	y := f.baseY + 1
	hx, hz := f.bx-in+1, f.bz-in+1
	cmds := []string{
		SetBlock(hx, y, hz, "campfire"),
	}
	for cy := y + 1; cy <= f.wallTop+f.half+2; cy++ {
		cmds = append(cmds, SetBlock(hx, cy, hz, "chain"))
	}
	cmds = append(cmds,
		SetBlock(f.bx-in, y, f.bz, "cauldron"),
		SetBlock(f.bx-in, y, f.bz+2, "crafting_table"),
		SetBlock(f.bx-in, y, f.bz+4, "smoker"),
		SetBlock(f.bx-in, y, f.bz+6, "barrel"),
	)
	return cmds
}

// study: bookshelves along the north and west walls, a desk, a lectern.
func (cottageBuilder) study(f frame) []string {
	in := f.half - 1
	y := f.floorY(f.floors-1) + 1
	return []string{
		Fill(f.bx-in, y, f.bz-in, f.bx+in-4, y+1, f.bz-in, "bookshelf"),
		Fill(f.bx-in, y, f.bz-in+1, f.bx-in, y+1, f.bz+in-2, "bookshelf"),
		SetBlock(f.bx, y, f.bz-in+2, "oak_slab"), // desk
		SetBlock(f.bx+1, y, f.bz-in+2, "lectern[facing=south]"),
	}
}
