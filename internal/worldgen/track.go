package worldgen

import (
	"context"
	"fmt"
)

// TrackSpec describes a rail corridor between a village and its
// destination. A destination center of (0,0) means the Crossroads hub.
type TrackSpec struct {
	SourceName string
	SrcCenterX int
	SrcCenterZ int
	DestName   string
	DstCenterX int
	DstCenterZ int
}

func (s TrackSpec) destIsHub() bool { return s.DstCenterX == 0 && s.DstCenterZ == 0 }

// Track lays the L-shaped rail corridor and a station pad at each end.
// The path runs X-first then Z with the corner at (dstX, srcZ), keeping
// the turn away from both plazas. Rails cannot be diagonal; the Z-first
// variant put the corner inside the source plaza.
//
// The corridor chunks stay forceloaded after the build so riders never
// cross unloaded space.
func (g *Generator) Track(ctx context.Context, spec TrackSpec) error {
	sx, sz := g.l.VillageStation(spec.SrcCenterX, spec.SrcCenterZ)
	var dx, dz int
	if spec.destIsHub() {
		_, dx, dz = g.l.CrossroadsSlot(spec.SrcCenterX, spec.SrcCenterZ)
	} else {
		dx, dz = g.l.VillageStation(spec.DstCenterX, spec.DstCenterZ)
	}

	x1, x2 := min(sx, dx), max(sx, dx)
	z1, z2 := min(sz, dz), max(sz, dz)
	if _, err := g.exec.Exec(ctx, ForceloadAdd(x1-5, z1-5, x2+5, z2+5)); err != nil {
		return fmt.Errorf("track forceload: %w", err)
	}
	// corridor stays loaded permanently: no matching forceload remove

	steps := [][]string{
		g.trackSegmentX(sx, dx, sz),
		g.trackSegmentZ(dx, sz, dz),
		g.trackCorner(dx, sz),
		g.trackStation(sx, sz, spec.DestName, spec.SourceName),
		g.trackStation(dx, dz, spec.SourceName, spec.DestName),
	}
	for _, cmds := range steps {
		if err := g.exec.ExecBatch(ctx, cmds); err != nil {
			return fmt.Errorf("track %s->%s: %w", spec.SourceName, spec.DestName, err)
		}
	}
	return nil
}

// trackSegmentX lays the east-west leg at fixed z, excluding the corner
// block. Trackbed first as one bulk fill, two blocks of air cleared above
// it, then rails with a powered rail on a redstone block every 8.
func (g *Generator) trackSegmentX(fromX, toX, z int) []string {
	bedY := g.l.BaseY
	railY := bedY + 1
	step := 1
	if toX < fromX {
		step = -1
	}
	x1, x2 := min(fromX, toX), max(fromX, toX)
	cmds := []string{
		Fill(x1, bedY, z, x2, bedY, z, "stone_bricks"),
		Fill(x1, railY, z, x2, railY+1, z, "air"),
	}
	for i := 0; ; i++ {
		x := fromX + i*step
		if x == toX {
			break // corner placed separately, last
		}
		if i%8 == 0 {
			cmds = append(cmds,
				SetBlock(x, bedY, z, "redstone_block"),
				SetBlock(x, railY, z, "powered_rail[shape=east_west]"),
			)
		} else {
			cmds = append(cmds, SetBlock(x, railY, z, "rail"))
		}
	}
	return cmds
}

// trackSegmentZ lays the north-south leg at fixed x, excluding the corner
// block.
func (g *Generator) trackSegmentZ(x, fromZ, toZ int) []string {
	bedY := g.l.BaseY
	railY := bedY + 1
	step := 1
	if toZ < fromZ {
		step = -1
	}
	z1, z2 := min(fromZ, toZ), max(fromZ, toZ)
	cmds := []string{
		Fill(x, bedY, z1, x, bedY, z2, "stone_bricks"),
		Fill(x, railY, z1, x, railY+1, z2, "air"),
	}
	for i := 1; ; i++ {
		z := fromZ + i*step
		if z == toZ+step {
			break
		}
		if i%8 == 0 {
			cmds = append(cmds,
				SetBlock(x, bedY, z, "redstone_block"),
				SetBlock(x, railY, z, "powered_rail[shape=north_south]"),
			)
		} else {
			cmds = append(cmds, SetBlock(x, railY, z, "rail"))
		}
	}
	return cmds
}

// trackCorner drops the corner rail after both legs exist so the engine
// auto-detects the neighbors and bends it into a curve.
func (g *Generator) trackCorner(x, z int) []string {
	return []string{SetBlock(x, g.l.BaseY+1, z, "rail")}
}

// trackStation lays the 9x5 pad with the rail down the center, a loaded
// minecart dispenser with its button at the south end, the destination
// sign on a support block at the south and the arrival sign at the north.
func (g *Generator) trackStation(x, z int, destName, hereName string) []string {
	bedY := g.l.BaseY
	y := bedY + 1
	return []string{
		Fill(x-2, bedY, z-4, x+2, bedY, z+4, "smooth_stone"),
		SetBlock(x+1, y, z+4, "dispenser[facing=west]"),
		DataMergeBlock(x+1, y, z+4,
			`{Items:[{Slot:0b,id:"minecraft:minecart",count:64}]}`),
		SetBlock(x+1, y+1, z+4, "stone_button[face=floor]"),
		SetBlock(x-1, y, z+4, "stone_bricks"),
		SignCommand(x-1, y+1, z+4, "north",
			[4]string{"", "To:", TruncateSignLine(destName), ""}),
		SignCommand(x-1, y, z-4, "south",
			[4]string{"", TruncateSignLine(hereName), "Station", ""}),
	}
}
