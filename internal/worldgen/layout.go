package worldgen

import (
	"math"

	"github.com/nextlevelbuilder/guildforge/internal/config"
)

// Layout carries every world-geometry constant. All placement math lives
// here so the consumer, worker and query API derive identical coordinates.
type Layout struct {
	VillageSpacing          int
	BaseY                   int
	CrossroadsPlazaRadius   int
	CrossroadsStationSlots  int
	CrossroadsStationRadius int
	VillageStationOffset    int
	FenceRadius             int
	Footprint               int
	GridColumns             int
}

// LayoutFrom builds a Layout from the world config section.
func LayoutFrom(w config.WorldConfig) Layout {
	return Layout{
		VillageSpacing:          w.VillageSpacing,
		BaseY:                   w.BaseY,
		CrossroadsPlazaRadius:   w.CrossroadsPlazaRadius,
		CrossroadsStationSlots:  w.CrossroadsStationSlots,
		CrossroadsStationRadius: w.CrossroadsStationRadius,
		VillageStationOffset:    w.VillageStationOffset,
		FenceRadius:             w.FenceRadius,
		Footprint:               w.BuildingFootprint,
		GridColumns:             w.GridColumns,
	}
}

// BuildingSpacing is the main-street pitch: footprint plus a 3-block gap.
func (l Layout) BuildingSpacing() int { return l.Footprint + 3 }

// HalfFootprint is the distance from a building center to its wall.
func (l Layout) HalfFootprint() int { return l.Footprint / 2 }

// GridAssign maps a village index to its center on the VillageSpacing grid.
// Index 0 would land on cell (0,0), which is reserved for the Crossroads
// hub, so village indices start at 1.
func (l Layout) GridAssign(villageIndex int) (x, z int) {
	col := villageIndex % l.GridColumns
	row := villageIndex / l.GridColumns
	return col * l.VillageSpacing, row * l.VillageSpacing
}

// BuildingPlace maps a building index to its center on the village main
// street: two rows facing a central street, even indices north, odd south.
// The -3 offset centers the row around the plaza.
func (l Layout) BuildingPlace(cx, cz, buildingIndex int) (x, z int) {
	row := buildingIndex % 2
	posInRow := buildingIndex / 2
	x = cx + (posInRow-3)*l.BuildingSpacing()
	if row == 0 {
		z = cz - 20
	} else {
		z = cz + 20
	}
	return x, z
}

// BuildingEntrance is the block just south of the building's south wall,
// used as the /goto and spawn target.
func (l Layout) BuildingEntrance(bx, bz int) (x, y, z int) {
	return bx, l.BaseY + 1, bz + l.HalfFootprint() + 1
}

// VillageStation is the center of the village's 9x5 station pad, on the
// south plaza edge. Tracks terminate here with no per-track offset.
func (l Layout) VillageStation(cx, cz int) (x, z int) {
	return cx, cz + l.VillageStationOffset
}

// CrossroadsSlot maps a source village direction to one of the evenly
// angled radial station slots around the hub, returning the slot number
// and the slot's platform center. Angles are computed in floating point
// and snapped to block coordinates with round.
func (l Layout) CrossroadsSlot(srcX, srcZ int) (slot, x, z int) {
	slots := l.CrossroadsStationSlots
	angle := math.Atan2(float64(srcZ), float64(srcX))
	if angle < 0 {
		angle += 2 * math.Pi
	}
	step := 2 * math.Pi / float64(slots)
	slot = int(math.Round(angle/step)) % slots

	x, z = l.SlotPosition(slot)
	return slot, x, z
}

// SlotPosition is the platform center of a hub station slot.
func (l Layout) SlotPosition(slot int) (x, z int) {
	step := 2 * math.Pi / float64(l.CrossroadsStationSlots)
	angle := float64(slot) * step
	r := float64(l.CrossroadsStationRadius)
	x = int(math.Round(r * math.Cos(angle)))
	z = int(math.Round(r * math.Sin(angle)))
	return x, z
}
