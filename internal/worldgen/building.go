package worldgen

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// BuildingStyle is one of the three architectural variants, selected
// deterministically from the channel identity.
type BuildingStyle int

const (
	StyleMedievalCastle BuildingStyle = iota
	StyleTimberCottage
	StyleStoneWatchtower
)

func (s BuildingStyle) String() string {
	switch s {
	case StyleMedievalCastle:
		return "MedievalCastle"
	case StyleTimberCottage:
		return "TimberCottage"
	case StyleStoneWatchtower:
		return "StoneWatchtower"
	}
	return "Unknown"
}

// StyleFor picks |channelId| mod 3. Non-numeric IDs fall back to an FNV
// hash so the choice stays stable across runs either way.
func StyleFor(channelExternalID string) BuildingStyle {
	if id, err := strconv.ParseInt(channelExternalID, 10, 64); err == nil {
		if id < 0 {
			id = -id
		}
		return BuildingStyle(id % 3)
	}
	h := fnv.New32a()
	h.Write([]byte(channelExternalID))
	return BuildingStyle(h.Sum32() % 3)
}

// Size tiers scale the whole structure with channel member count. A zero
// member count means the caller did not supply one and defaults to Medium.
func buildingDims(memberCount int) (footprint, floors int) {
	switch {
	case memberCount == 0:
		return 21, 3
	case memberCount < 10:
		return 15, 2
	case memberCount < 30:
		return 21, 3
	default:
		return 27, 4
	}
}

// BuildingSpec describes a building to materialise.
type BuildingSpec struct {
	ExternalID    string
	Name          string
	CenterX       int // owning village center
	CenterZ       int
	BuildingIndex int
	Topic         string
	MemberCount   int
}

// frame carries every derived coordinate of one building. All style code
// works from these fields; nothing hardcodes a footprint.
type frame struct {
	bx, bz  int
	half    int
	baseY   int
	floors  int
	floorH  int
	wallTop int
	style   BuildingStyle
}

func newFrame(l Layout, spec BuildingSpec) frame {
	footprint, floors := buildingDims(spec.MemberCount)
	bx, bz := l.BuildingPlace(spec.CenterX, spec.CenterZ, spec.BuildingIndex)
	const floorH = 5
	return frame{
		bx:      bx,
		bz:      bz,
		half:    footprint / 2,
		baseY:   l.BaseY,
		floors:  floors,
		floorH:  floorH,
		wallTop: l.BaseY + floors*floorH,
		style:   StyleFor(spec.ExternalID),
	}
}

// floorY is the slab level of floor i (0 = ground).
func (f frame) floorY(i int) int { return f.baseY + i*f.floorH }

// scaled maps an offset designed for the 21-block footprint (half 10)
// onto this frame's half-width, rounding toward zero.
func (f frame) scaled(base int) int { return base * f.half / 10 }

// styleBuilder is the per-style construction contract. Steps run in the
// fixed order Building enforces; signs attach only to blocks placed by
// earlier steps.
type styleBuilder interface {
	walls(f frame) []string
	annex(f frame) []string // corner turrets or buttresses
	stairs(f frame) []string
	roof(f frame) []string
	windows(f frame) []string
	furniture(f frame, floor int) []string
}

func builderFor(style BuildingStyle) styleBuilder {
	switch style {
	case StyleTimberCottage:
		return cottageBuilder{}
	case StyleStoneWatchtower:
		return watchtowerBuilder{}
	default:
		return castleBuilder{}
	}
}

// Building materialises a channel's structure. Output order is strict:
// forceload, foundation, walls, annex, interior clear, intermediate
// floors, stairs, roof, windows, entrance, lighting, signs, furniture,
// forceload release.
func (g *Generator) Building(ctx context.Context, spec BuildingSpec) error {
	f := newFrame(g.l, spec)
	b := builderFor(f.style)

	load := f.half + 8
	if _, err := g.exec.Exec(ctx, ForceloadAdd(f.bx-load, f.bz-load, f.bx+load, f.bz+load)); err != nil {
		return fmt.Errorf("building forceload: %w", err)
	}

	steps := [][]string{
		g.buildingWalkway(spec, f),
		g.buildingFoundation(f),
		b.walls(f),
		b.annex(f),
		g.buildingClearInterior(f),
		g.buildingFloors(f),
		b.stairs(f),
		b.roof(f),
		b.windows(f),
		g.buildingEntrance(f),
		g.buildingLighting(f),
		g.buildingSigns(spec, f),
		g.buildingFurniture(b, f),
	}
	for _, cmds := range steps {
		if err := g.exec.ExecBatch(ctx, cmds); err != nil {
			return fmt.Errorf("building %q: %w", spec.Name, err)
		}
	}

	if _, err := g.exec.Exec(ctx, ForceloadRemove(f.bx-load, f.bz-load, f.bx+load, f.bz+load)); err != nil {
		return fmt.Errorf("building forceload release: %w", err)
	}
	return nil
}

// buildingWalkway lays the shared 3-wide L-shaped cobblestone path from
// the village center to the building's south entrance, X leg first.
func (g *Generator) buildingWalkway(spec BuildingSpec, f frame) []string {
	cx, cz := spec.CenterX, spec.CenterZ
	entZ := f.bz + f.half + 1

	x1, x2 := min(cx, f.bx), max(cx, f.bx)
	z1, z2 := min(cz, entZ), max(cz, entZ)
	return []string{
		Fill(x1, f.baseY, cz-1, x2, f.baseY, cz+1, "cobblestone"),
		Fill(f.bx-1, f.baseY, z1, f.bx+1, f.baseY, z2, "cobblestone"),
	}
}

func (g *Generator) buildingFoundation(f frame) []string {
	return []string{
		Fill(f.bx-f.half, f.baseY, f.bz-f.half, f.bx+f.half, f.baseY, f.bz+f.half, "stone_bricks"),
	}
}

func (g *Generator) buildingClearInterior(f frame) []string {
	in := f.half - 1
	return []string{
		Fill(f.bx-in, f.baseY+1, f.bz-in, f.bx+in, f.wallTop-1, f.bz+in, "air"),
	}
}

// buildingFloors lays one oak plank slab per intermediate storey, leaving
// a stairwell opening in the northeast corner.
func (g *Generator) buildingFloors(f frame) []string {
	in := f.half - 1
	var cmds []string
	for i := 1; i < f.floors; i++ {
		y := f.floorY(i)
		cmds = append(cmds,
			Fill(f.bx-in, y, f.bz-in, f.bx+in, y, f.bz+in, "oak_planks"),
			Fill(f.bx+in-3, y, f.bz-in, f.bx+in, y, f.bz-in+3, "air"), // stairwell opening
		)
	}
	return cmds
}

// buildingEntrance opens the 3-wide, 3-high south doorway.
func (g *Generator) buildingEntrance(f frame) []string {
	return []string{
		Fill(f.bx-1, f.baseY+1, f.bz+f.half, f.bx+1, f.baseY+3, f.bz+f.half, "air"),
	}
}

// buildingLighting hangs glowstone under each ceiling.
func (g *Generator) buildingLighting(f frame) []string {
	var cmds []string
	for i := 0; i < f.floors; i++ {
		y := f.floorY(i+1) - 1
		cmds = append(cmds, SetBlock(f.bx, y, f.bz, "glowstone"))
	}
	return cmds
}

// buildingSigns places the exterior name sign above the south doorway and
// a floor label per storey, plus the interior topic sign when the channel
// has a topic.
func (g *Generator) buildingSigns(spec BuildingSpec, f frame) []string {
	cmds := []string{
		SignCommand(f.bx, f.baseY+5, f.bz+f.half+1, "south",
			[4]string{"", "#" + spec.Name, f.style.String(), ""}),
	}
	for i := 0; i < f.floors; i++ {
		label := fmt.Sprintf("Floor %d", i+1)
		cmds = append(cmds, SignCommand(f.bx-f.half+1, f.floorY(i)+2, f.bz+f.half-1, "north",
			[4]string{"", label, "", ""}))
	}
	if spec.Topic != "" {
		cmds = append(cmds, SignCommand(f.bx+2, f.baseY+2, f.bz+f.half-1, "north", topicLines(spec.Topic)))
	}
	return cmds
}

// topicLines splits a channel topic across the four sign lines.
func topicLines(topic string) [4]string {
	words := strings.Fields(topic)
	var lines [4]string
	row := 0
	for _, w := range words {
		if row >= 4 {
			break
		}
		if lines[row] == "" {
			lines[row] = TruncateSignLine(w)
			continue
		}
		if len(lines[row])+1+len(w) <= signLineMax {
			lines[row] += " " + w
		} else {
			row++
			if row < 4 {
				lines[row] = TruncateSignLine(w)
			}
		}
	}
	return lines
}

// interiorStairs runs a staircase up the northeast interior under the
// stairwell openings left by buildingFloors, one flight per storey.
func interiorStairs(f frame, stairBlock string) []string {
	in := f.half - 1
	var cmds []string
	for i := 0; i < f.floors-1; i++ {
		y0 := f.floorY(i) + 1
		for s := 0; s < f.floorH; s++ {
			z := f.bz - in + (f.floorH - 1 - s)
			cmds = append(cmds, Fill(f.bx+in-2, y0+s, z, f.bx+in, y0+s, z,
				stairBlock+"[facing=north]"))
		}
	}
	return cmds
}

// buildingFurniture furnishes every storey: the style's hall on the
// ground floor, its upper set on the top floor, lighting-only storeys in
// between on Large buildings.
func (g *Generator) buildingFurniture(b styleBuilder, f frame) []string {
	var cmds []string
	for i := 0; i < f.floors; i++ {
		cmds = append(cmds, b.furniture(f, i)...)
	}
	return cmds
}
