package worldgen

import (
	"context"
	"strings"
	"testing"
)

func TestVillageStepOrder(t *testing.T) {
	rec := &recordingExecutor{}
	g := New(rec, testLayout())

	err := g.Village(context.Background(), VillageSpec{
		Name: "gaming", CenterX: 175, CenterZ: 0, ChannelCount: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(rec.commands[0], "forceload add") {
		t.Errorf("first command = %q, want forceload add", rec.commands[0])
	}
	last := rec.commands[len(rec.commands)-1]
	if !strings.HasPrefix(last, "forceload remove") {
		t.Errorf("last command = %q, want forceload remove", last)
	}

	plaza := rec.indexOf(t, "fill 160 -60 -15 190 -60 15 minecraft:stone_bricks")
	sign := rec.indexOf(t, "oak_wall_sign")
	fence := rec.indexOf(t, "oak_fence")
	if sign < plaza {
		t.Errorf("sign at %d before plaza at %d", sign, plaza)
	}
	if fence < sign {
		t.Errorf("fence at %d before signs at %d", fence, sign)
	}
}

func TestVillageFountainVariants(t *testing.T) {
	small := &recordingExecutor{}
	g := New(small, testLayout())
	if err := g.Village(context.Background(), VillageSpec{Name: "s", CenterX: 175, ChannelCount: 2}); err != nil {
		t.Fatal(err)
	}
	grand := &recordingExecutor{}
	g = New(grand, testLayout())
	if err := g.Village(context.Background(), VillageSpec{Name: "g", CenterX: 350, ChannelCount: 5}); err != nil {
		t.Fatal(err)
	}

	// the grand fountain has a 7x7 base; the basic one is 3x3
	if !grand.contains("fill 347 -59 -3 353 -59 3 minecraft:stone_bricks") {
		t.Error("grand fountain base missing for 4+ channels")
	}
	if small.contains("fill 172 -59 -3 178 -59 3") {
		t.Error("small village got the grand fountain")
	}
}

func TestVillageNameOnAllFourFaces(t *testing.T) {
	rec := &recordingExecutor{}
	g := New(rec, testLayout())
	if err := g.Village(context.Background(), VillageSpec{Name: "dev", CenterX: 175, ChannelCount: 1}); err != nil {
		t.Fatal(err)
	}
	signs := 0
	for _, c := range rec.commands {
		if strings.Contains(c, "oak_wall_sign") && strings.Contains(c, `"dev"`) {
			signs++
		}
	}
	if signs != 4 {
		t.Errorf("got %d name signs, want 4", signs)
	}
}

func TestVillageFenceGates(t *testing.T) {
	rec := &recordingExecutor{}
	g := New(rec, testLayout())
	if err := g.Village(context.Background(), VillageSpec{Name: "x", CenterX: 0, CenterZ: 175}); err != nil {
		t.Fatal(err)
	}
	// 3-wide gate carved at the south fence cardinal
	if !rec.contains("fill -1 -59 325 1 -59 325 minecraft:air") {
		t.Error("south fence gate not carved")
	}
}
