package extract

import (
	"reflect"
	"testing"

	"regionstruct/src/nbt"
)

func TestBuildStructureBoundsAndKey(t *testing.T) {
	stone := BlockState{Name: "minecraft:stone"}
	voxels := []Voxel{
		{X: -5, Y: 60, Z: 3, State: stone},
		{X: 2, Y: 64, Z: -1, State: stone},
	}
	s := BuildStructure(voxels)
	if s.Origin != [3]int{-5, 60, -1} {
		t.Fatalf("origin got %v", s.Origin)
	}
	if s.Size != [3]int{8, 5, 5} {
		t.Fatalf("size got %v", s.Size)
	}
	if s.Key() != "-5_60_-1" {
		t.Fatalf("key got %q", s.Key())
	}
	if s.Blocks[0].Pos != [3]int{0, 0, 4} || s.Blocks[1].Pos != [3]int{7, 4, 0} {
		t.Fatalf("positions got %v, %v", s.Blocks[0].Pos, s.Blocks[1].Pos)
	}
}

func TestBuildStructurePaletteDedup(t *testing.T) {
	a := NewBlockState("minecraft:oak_stairs", map[string]string{"facing": "north", "half": "top"})
	b := BlockState{Name: "minecraft:oak_stairs", Properties: []Property{{"half", "top"}, {"facing", "north"}}}
	c := NewBlockState("minecraft:oak_stairs", map[string]string{"facing": "south", "half": "top"})
	stone := BlockState{Name: "minecraft:stone"}

	s := BuildStructure([]Voxel{
		{X: 0, State: stone},
		{X: 1, State: a},
		{X: 2, State: b},
		{X: 3, State: c},
		{X: 4, State: stone},
	})
	if len(s.Palette) != 3 {
		t.Fatalf("palette got %d entries want 3: %v", len(s.Palette), s.Palette)
	}
	wantStates := []int{0, 1, 1, 2, 0}
	for i, b := range s.Blocks {
		if b.State != wantStates[i] {
			t.Fatalf("block %d state got %d want %d", i, b.State, wantStates[i])
		}
	}
	for i := range s.Palette {
		for j := i + 1; j < len(s.Palette); j++ {
			if s.Palette[i].Equivalent(s.Palette[j]) {
				t.Fatalf("palette entries %d and %d are equivalent", i, j)
			}
		}
	}
}

func TestBuildStructureCollisionMerge(t *testing.T) {
	items := nbt.NewCompound()
	items.Set("Items", nbt.NewList(nbt.TagCompound))
	items.Set("Lock", "a")

	chestState := BlockState{Name: "minecraft:chest"}
	openState := NewBlockState("minecraft:chest", map[string]string{"type": "single"})
	s := BuildStructure([]Voxel{
		{X: 5, Y: 5, Z: 5, State: chestState, Extra: items},
		{X: 5, Y: 5, Z: 5, State: openState},
	})
	if len(s.Blocks) != 1 {
		t.Fatalf("got %d blocks want 1", len(s.Blocks))
	}
	b := s.Blocks[0]
	if !s.Palette[b.State].Equivalent(openState) {
		t.Fatalf("state got %s want %s", s.Palette[b.State], openState)
	}
	if !b.Extra.Has("Items") || !b.Extra.Has("Lock") {
		t.Fatalf("extra lost fields: %v", b.Extra.Keys())
	}
	// 合并后调色板中保留了先出现的状态
	if len(s.Palette) != 2 {
		t.Fatalf("palette got %d entries want 2", len(s.Palette))
	}
}

func TestBuildStructureCollisionOverwritesKeys(t *testing.T) {
	first := nbt.NewCompound()
	first.Set("Lock", "a")
	first.Set("CustomName", "one")
	second := nbt.NewCompound()
	second.Set("Lock", "b")

	stone := BlockState{Name: "minecraft:stone"}
	s := BuildStructure([]Voxel{
		{State: stone, Extra: first},
		{State: stone, Extra: second},
	})
	extra := s.Blocks[0].Extra
	if v, _ := extra.String("Lock"); v != "b" {
		t.Fatalf("Lock got %q want %q", v, "b")
	}
	if v, _ := extra.String("CustomName"); v != "one" {
		t.Fatalf("CustomName got %q want %q", v, "one")
	}
	if v, _ := first.String("Lock"); v != "a" {
		t.Fatalf("input extra was modified")
	}
}

func TestBuildStructureDeterministic(t *testing.T) {
	var voxels []Voxel
	names := []string{"minecraft:stone", "minecraft:dirt", "minecraft:grass_block", "minecraft:oak_log"}
	for i := 0; i < 200; i++ {
		voxels = append(voxels, Voxel{X: i % 16, Y: i / 16, Z: i % 7, State: BlockState{Name: names[(i*7)%len(names)]}})
	}
	a := BuildStructure(voxels)
	b := BuildStructure(voxels)
	if !reflect.DeepEqual(a.Palette, b.Palette) || !reflect.DeepEqual(a.Blocks, b.Blocks) {
		t.Fatalf("same input produced different structures")
	}
	if a.Palette[0].Name != names[0] {
		t.Fatalf("first palette entry got %s want first-seen %s", a.Palette[0].Name, names[0])
	}
}

func TestBuildStructureEmpty(t *testing.T) {
	if s := BuildStructure(nil); s != nil {
		t.Fatalf("got %v want nil", s)
	}
}
