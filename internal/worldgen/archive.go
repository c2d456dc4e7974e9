package worldgen

import (
	"context"
	"fmt"
)

// ArchiveBuildingSpec identifies a structure to deface. Coordinates are
// recomputed from the village center and building index with the same
// placement math that built it.
type ArchiveBuildingSpec struct {
	ExternalID    string
	Name          string
	CenterX       int
	CenterZ       int
	BuildingIndex int
}

// ArchiveBuilding marks a building archived in-world: the exterior and
// floor signs are rewritten under a red [Archived] header and the south
// doorway is sealed with barrier blocks. The structure itself stays.
func (g *Generator) ArchiveBuilding(ctx context.Context, spec ArchiveBuildingSpec) error {
	f := newFrame(g.l, BuildingSpec{
		ExternalID:    spec.ExternalID,
		Name:          spec.Name,
		CenterX:       spec.CenterX,
		CenterZ:       spec.CenterZ,
		BuildingIndex: spec.BuildingIndex,
	})

	load := f.half + 4
	if _, err := g.exec.Exec(ctx, ForceloadAdd(f.bx-load, f.bz-load, f.bx+load, f.bz+load)); err != nil {
		return fmt.Errorf("archive forceload: %w", err)
	}

	cmds := []string{
		SetBlock(f.bx, f.baseY+5, f.bz+f.half+1,
			ArchivedWallSign("south", [4]string{"#" + spec.Name, f.style.String(), "", ""})),
	}
	for i := 0; i < f.floors; i++ {
		label := fmt.Sprintf("Floor %d", i+1)
		cmds = append(cmds, SetBlock(f.bx-f.half+1, f.floorY(i)+2, f.bz+f.half-1,
			ArchivedWallSign("north", [4]string{label, "", "", ""})))
	}
	// seal the doorway
	cmds = append(cmds,
		Fill(f.bx-1, f.baseY+1, f.bz+f.half, f.bx+1, f.baseY+3, f.bz+f.half, "barrier"))

	if err := g.exec.ExecBatch(ctx, cmds); err != nil {
		return fmt.Errorf("archive building %q: %w", spec.Name, err)
	}

	if _, err := g.exec.Exec(ctx, ForceloadRemove(f.bx-load, f.bz-load, f.bx+load, f.bz+load)); err != nil {
		return fmt.Errorf("archive forceload release: %w", err)
	}
	return nil
}

// ArchiveVillage rewrites the fountain name signs under the [Archived]
// header. Child buildings are archived through their own jobs.
func (g *Generator) ArchiveVillage(ctx context.Context, name string, cx, cz, channelCount int) error {
	fr := 1
	if channelCount >= 4 {
		fr = 3
	}
	lines := [4]string{name, "Village", "", ""}
	y := g.l.BaseY + 2
	cmds := []string{
		SetBlock(cx, y, cz-fr-1, ArchivedWallSign("north", lines)),
		SetBlock(cx, y, cz+fr+1, ArchivedWallSign("south", lines)),
		SetBlock(cx-fr-1, y, cz, ArchivedWallSign("west", lines)),
		SetBlock(cx+fr+1, y, cz, ArchivedWallSign("east", lines)),
	}
	if err := g.exec.ExecBatch(ctx, cmds); err != nil {
		return fmt.Errorf("archive village %q: %w", name, err)
	}
	return nil
}
