package worldgen

import (
	"context"
	"strings"
	"testing"
)

// recordingExecutor captures every command in submission order.
type recordingExecutor struct {
	commands []string
}

func (r *recordingExecutor) Exec(ctx context.Context, command string) (string, error) {
	r.commands = append(r.commands, command)
	return "", nil
}

func (r *recordingExecutor) ExecBatch(ctx context.Context, commands []string) error {
	r.commands = append(r.commands, commands...)
	return nil
}

func (r *recordingExecutor) indexOf(t *testing.T, substr string) int {
	t.Helper()
	for i, c := range r.commands {
		if strings.Contains(c, substr) {
			return i
		}
	}
	t.Fatalf("no command containing %q", substr)
	return -1
}

func (r *recordingExecutor) contains(substr string) bool {
	for _, c := range r.commands {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func TestStyleForNumericID(t *testing.T) {
	tests := []struct {
		id   string
		want BuildingStyle
	}{
		{"0", StyleMedievalCastle},
		{"1", StyleTimberCottage},
		{"2", StyleStoneWatchtower},
		{"3", StyleMedievalCastle},
		{"1234567890123456788", StyleStoneWatchtower},
		{"-4", StyleTimberCottage}, // |−4| mod 3
	}
	for _, tt := range tests {
		if got := StyleFor(tt.id); got != tt.want {
			t.Errorf("StyleFor(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestStyleForNonNumericStable(t *testing.T) {
	a := StyleFor("general-chat")
	for i := 0; i < 10; i++ {
		if StyleFor("general-chat") != a {
			t.Fatal("style not stable across calls")
		}
	}
}

func TestBuildingDims(t *testing.T) {
	tests := []struct {
		members   int
		footprint int
		floors    int
	}{
		{0, 21, 3}, // unset defaults to Medium
		{1, 15, 2},
		{9, 15, 2},
		{10, 21, 3},
		{29, 21, 3},
		{30, 27, 4},
		{500, 27, 4},
	}
	for _, tt := range tests {
		fp, fl := buildingDims(tt.members)
		if fp != tt.footprint || fl != tt.floors {
			t.Errorf("buildingDims(%d) = (%d, %d), want (%d, %d)",
				tt.members, fp, fl, tt.footprint, tt.floors)
		}
	}
}

func TestFrameScaling(t *testing.T) {
	l := testLayout()
	small := newFrame(l, BuildingSpec{ExternalID: "0", CenterX: 175, MemberCount: 5})
	if small.half != 7 {
		t.Errorf("small half = %d, want 7", small.half)
	}
	// window offset 6 on the reference footprint scales down with the frame
	if got := small.scaled(6); got != 4 {
		t.Errorf("scaled(6) on small = %d, want 4", got)
	}
	large := newFrame(l, BuildingSpec{ExternalID: "0", CenterX: 175, MemberCount: 40})
	if large.half != 13 {
		t.Errorf("large half = %d, want 13", large.half)
	}
	if large.wallTop != large.baseY+4*5 {
		t.Errorf("large wallTop = %d, want baseY+20", large.wallTop)
	}
}

func TestBuildingStepOrder(t *testing.T) {
	rec := &recordingExecutor{}
	g := New(rec, testLayout())

	err := g.Building(context.Background(), BuildingSpec{
		ExternalID:    "0", // castle
		Name:          "general",
		CenterX:       175,
		CenterZ:       0,
		BuildingIndex: 0,
		Topic:         "daily chatter",
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

	// signs come after every structural phase
	sign := rec.indexOf(t, "oak_wall_sign")
	walls := rec.indexOf(t, "cobblestone")
	roof := rec.indexOf(t, "stone_bricks")
	if sign < walls || sign < roof {
		t.Errorf("sign at %d before structure (walls %d, roof %d)", sign, walls, roof)
	}

	// doorway cleared, name sign present, topic sign present
	if !rec.contains("#general") {
		t.Error("name sign missing")
	}
	if !rec.contains("daily chatter") {
		t.Error("topic sign missing")
	}
	if !rec.contains("Floor 1") || !rec.contains("Floor 3") {
		t.Error("floor labels missing")
	}
}

func TestBuildingStyleBlocks(t *testing.T) {
	tests := []struct {
		id    string
		block string
	}{
		{"0", "minecraft:cobblestone"},    // castle curtain wall
		{"1", "minecraft:birch_planks"},   // cottage infill
		{"2", "minecraft:mossy_stone_bricks"}, // watchtower base course
	}
	for _, tt := range tests {
		rec := &recordingExecutor{}
		g := New(rec, testLayout())
		err := g.Building(context.Background(), BuildingSpec{
			ExternalID: tt.id, Name: "x", CenterX: 175, CenterZ: 0,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !rec.contains(tt.block) {
			t.Errorf("style %s: no command uses %s", StyleFor(tt.id), tt.block)
		}
	}
}

func TestBuildingEntranceCleared(t *testing.T) {
	rec := &recordingExecutor{}
	g := New(rec, testLayout())
	err := g.Building(context.Background(), BuildingSpec{
		ExternalID: "0", Name: "x", CenterX: 175, CenterZ: 0, BuildingIndex: 6,
	})
	if err != nil {
		t.Fatal(err)
	}
	// index 6 sits at (175, -20); south wall z = -20+10 = -10
	if !rec.contains("fill 174 -59 -10 176 -57 -10 minecraft:air") {
		t.Error("south doorway not cleared")
	}
}
