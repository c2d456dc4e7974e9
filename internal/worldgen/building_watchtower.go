package worldgen

// watchtowerBuilder produces the StoneWatchtower style: stone-brick
// walls on a mossy base course, stepped corner buttresses, tall lancet
// windows, a pyramid cap with a railed deck, a planning room and a
// brewing loft.
type watchtowerBuilder struct{}

func (watchtowerBuilder) walls(f frame) []string {
	h := f.half
	return []string{
		// mossy base course
		Fill(f.bx-h, f.baseY+1, f.bz-h, f.bx+h, f.baseY+1, f.bz-h, "mossy_stone_bricks"),
		Fill(f.bx-h, f.baseY+1, f.bz+h, f.bx+h, f.baseY+1, f.bz+h, "mossy_stone_bricks"),
		Fill(f.bx-h, f.baseY+1, f.bz-h, f.bx-h, f.baseY+1, f.bz+h, "mossy_stone_bricks"),
		Fill(f.bx+h, f.baseY+1, f.bz-h, f.bx+h, f.baseY+1, f.bz+h, "mossy_stone_bricks"),
		// stone brick body
		Fill(f.bx-h, f.baseY+2, f.bz-h, f.bx+h, f.wallTop, f.bz-h, "stone_bricks"),
		Fill(f.bx-h, f.baseY+2, f.bz+h, f.bx+h, f.wallTop, f.bz+h, "stone_bricks"),
		Fill(f.bx-h, f.baseY+2, f.bz-h, f.bx-h, f.wallTop, f.bz+h, "stone_bricks"),
		Fill(f.bx+h, f.baseY+2, f.bz-h, f.bx+h, f.wallTop, f.bz+h, "stone_bricks"),
	}
}

// annex builds a stepped buttress at each corner: three layers extending
// outward, each one block shorter than the one below.
func (watchtowerBuilder) annex(f frame) []string {
	h := f.half
	var cmds []string
	for _, dx := range []int{-1, 1} {
		for _, dz := range []int{-1, 1} {
			cx, cz := f.bx+dx*h, f.bz+dz*h
			for layer := 0; layer < 3; layer++ {
				ext := 3 - layer
				y1 := f.baseY + 1 + layer*2
				y2 := y1 + 1
				if layer == 2 {
					y2 = y1
				}
				cmds = append(cmds,
					Fill(cx, y1, cz, cx+dx*ext, y2, cz, "stone_bricks"),
					Fill(cx, y1, cz, cx, y2, cz+dz*ext, "stone_bricks"),
				)
			}
		}
	}
	return cmds
}

func (watchtowerBuilder) stairs(f frame) []string {
	return interiorStairs(f, "stone_brick_stairs")
}

// roof caps the tower with a stepped 3-layer pyramid and rings the deck
// with a glass pane railing.
func (watchtowerBuilder) roof(f frame) []string {
	h := f.half
	y := f.wallTop + 1
	cmds := []string{
		Fill(f.bx-h, y, f.bz-h, f.bx+h, y, f.bz+h, "stone_bricks"),
		// railing on the deck edge
		Fill(f.bx-h, y+1, f.bz-h, f.bx+h, y+1, f.bz-h, "glass_pane"),
		Fill(f.bx-h, y+1, f.bz+h, f.bx+h, y+1, f.bz+h, "glass_pane"),
		Fill(f.bx-h, y+1, f.bz-h, f.bx-h, y+1, f.bz+h, "glass_pane"),
		Fill(f.bx+h, y+1, f.bz-h, f.bx+h, y+1, f.bz+h, "glass_pane"),
	}
	for layer := 1; layer <= 3; layer++ {
		r := h - 2*layer
		if r < 0 {
			break
		}
		cmds = append(cmds, Fill(f.bx-r, y+layer, f.bz-r, f.bx+r, y+layer, f.bz+r, "stone_bricks"))
	}
	return cmds
}

// windows carves 1x3 lancets at the scaled ±5 offsets on every wall and
// floor.
func (watchtowerBuilder) windows(f frame) []string {
	h := f.half
	var cmds []string
	for i := 0; i < f.floors; i++ {
		y1 := f.floorY(i) + 1
		y2 := y1 + 2
		for _, base := range []int{-5, 5} {
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

func (w watchtowerBuilder) furniture(f frame, floor int) []string {
	switch {
	case floor == 0:
		return w.planningRoom(f)
	case floor == f.floors-1:
		return w.brewingLoft(f)
	}
	return nil
}

// planningRoom: central map table with a cartography station, lectern
// and chiseled bookshelves on the north wall.
func (watchtowerBuilder) planningRoom(f frame) []string {
	in := f.half - 1
	y := f.baseY + 1
	return []string{
		Fill(f.bx-1, y, f.bz-1, f.bx+1, y, f.bz+1, "oak_slab"), // map table
		SetBlock(f.bx-in, y, f.bz-in, "cartography_table"),
		SetBlock(f.bx-in+2, y, f.bz-in, "lectern[facing=south]"),
		Fill(f.bx, y, f.bz-in, f.bx+in-2, y, f.bz-in, "chiseled_bookshelf[facing=south]"),
	}
}

// brewingLoft: brewing stands, a water cauldron and a soul campfire.
func (watchtowerBuilder) brewingLoft(f frame) []string {
	in := f.half - 1
	y := f.floorY(f.floors-1) + 1
	return []string{
		SetBlock(f.bx-in, y, f.bz-in, "brewing_stand"),
		SetBlock(f.bx-in+2, y, f.bz-in, "brewing_stand"),
		SetBlock(f.bx-in+4, y, f.bz-in, "water_cauldron[level=3]"),
		SetBlock(f.bx+in-1, y, f.bz-in+1, "soul_campfire"),
	}
}
