package format

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"regionstruct/extract"
	"regionstruct/src/nbt"
)

func sampleStructure() *extract.Structure {
	extra := nbt.NewCompound()
	extra.Set("CustomName", "loot")
	return &extract.Structure{
		Origin:      [3]int{-16, 64, 32},
		Size:        [3]int{2, 3, 1},
		DataVersion: 3700,
		Palette: []extract.BlockState{
			{Name: "minecraft:chest"},
			extract.NewBlockState("minecraft:oak_log", map[string]string{"axis": "y"}),
		},
		Blocks: []extract.Block{
			{Pos: [3]int{0, 0, 0}, State: 0, Extra: extra},
			{Pos: [3]int{1, 2, 0}, State: 1},
		},
	}
}

func TestParseStructureName(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z int
		ok      bool
	}{
		{"-16_64_32.nbt", -16, 64, 32, true},
		{"/out/0_-64_0.json", 0, -64, 0, true},
		{"1_2_3", 1, 2, 3, true},
		{"1_2.nbt", 0, 0, 0, false},
		{"a_b_c.nbt", 0, 0, 0, false},
	}
	for _, tt := range tests {
		x, y, z, ok := ParseStructureName(tt.name)
		if ok != tt.ok || x != tt.x || y != tt.y || z != tt.z {
			t.Fatalf("ParseStructureName(%q) got (%d,%d,%d,%v)", tt.name, x, y, z, ok)
		}
	}

	s := sampleStructure()
	x, y, z, ok := ParseStructureName(StructureFileName(s, ".nbt"))
	if !ok || [3]int{x, y, z} != s.Origin {
		t.Fatalf("file name does not round trip origin")
	}
}

func TestEmitterManager(t *testing.T) {
	m := NewEmitterManager()
	if got := m.GetAvailableFormats(); !reflect.DeepEqual(got, []string{"cbor", "json", "nbt"}) {
		t.Fatalf("formats got %v", got)
	}
	for _, name := range m.GetAvailableFormats() {
		e, err := m.GetEmitter(name)
		if err != nil || e.GetFormatName() != name {
			t.Fatalf("emitter %s: %v", name, err)
		}
	}
	if _, err := m.GetEmitter("schem"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestStructureEmitterWritesReadableNBT(t *testing.T) {
	dir := t.TempDir()
	path, err := NewStructureEmitter().Emit(dir, sampleStructure())
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if filepath.Base(path) != "-16_64_32.nbt" {
		t.Fatalf("path got %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	_, root, err := nbt.ReadGzip(f)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"size", "DataVersion", "entities", "palette", "blocks"}) {
		t.Fatalf("root keys got %v", got)
	}
	if v, _ := root.Int("DataVersion"); v != 3700 {
		t.Fatalf("DataVersion got %d", v)
	}
	blocks, _ := root.List("blocks")
	first := blocks.Compounds()[0]
	extra, ok := first.Compound("nbt")
	if !ok {
		t.Fatalf("block entity nbt missing")
	}
	if name, _ := extra.String("CustomName"); name != "loot" {
		t.Fatalf("CustomName got %q", name)
	}
	if blocks.Compounds()[1].Has("nbt") {
		t.Fatalf("plain block should not carry nbt")
	}

	if ok, msg := VerifyStructureFile(path); !ok {
		t.Fatalf("verify failed: %s", msg)
	}
}

func TestStructureEmitterRejectsBadSize(t *testing.T) {
	s := sampleStructure()
	s.Size[1] = 0x10000
	if _, err := NewStructureEmitter().Emit(t.TempDir(), s); err == nil {
		t.Fatalf("expected error for oversized structure")
	}
}

func TestJSONEmitter(t *testing.T) {
	path, err := NewJSONEmitter().Emit(t.TempDir(), sampleStructure())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Origin != [3]int{-16, 64, 32} || doc.DataVersion != 3700 {
		t.Fatalf("doc header got %+v", doc)
	}
	if doc.Palette[1].Properties["axis"] != "y" {
		t.Fatalf("palette properties got %v", doc.Palette[1].Properties)
	}
	if doc.Blocks[0].NBT["CustomName"] != "loot" || doc.Blocks[1].NBT != nil {
		t.Fatalf("block nbt got %v / %v", doc.Blocks[0].NBT, doc.Blocks[1].NBT)
	}
}

func TestCBOREmitterDeterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	a, err := NewCBOREmitter().Emit(dirA, sampleStructure())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCBOREmitter().Emit(dirB, sampleStructure())
	if err != nil {
		t.Fatal(err)
	}
	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if string(da) != string(db) {
		t.Fatalf("CBOR output differs between runs")
	}

	var doc document
	if err := cbor.Unmarshal(da, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Blocks) != 2 || doc.Size != [3]int{2, 3, 1} {
		t.Fatalf("doc got %+v", doc)
	}
}

func writeStructureFile(t *testing.T, root *nbt.Compound) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0_0_0.nbt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := nbt.WriteGzip(f, "", root); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVerifyStructureFileFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(root *nbt.Compound)
	}{
		{"missing blocks", func(root *nbt.Compound) { root.Delete("blocks") }},
		{"state out of range", func(root *nbt.Compound) {
			blocks, _ := root.List("blocks")
			blocks.Compounds()[1].Set("state", int32(5))
		}},
		{"position out of bounds", func(root *nbt.Compound) {
			blocks, _ := root.List("blocks")
			blocks.Compounds()[1].Set("pos", nbt.NewList(nbt.TagInt, int32(2), int32(0), int32(0)))
		}},
		{"duplicate position", func(root *nbt.Compound) {
			blocks, _ := root.List("blocks")
			blocks.Compounds()[1].Set("pos", nbt.NewList(nbt.TagInt, int32(0), int32(0), int32(0)))
		}},
		{"duplicate palette entry", func(root *nbt.Compound) {
			palette, _ := root.List("palette")
			palette.Items = append(palette.Items, palette.Compounds()[0].Clone())
		}},
	}
	for _, tt := range tests {
		root, err := StructureNBT(sampleStructure())
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(root)
		if ok, _ := VerifyStructureFile(writeStructureFile(t, root)); ok {
			t.Fatalf("%s: verification should fail", tt.name)
		}
	}

	if ok, _ := VerifyStructureFile(filepath.Join(t.TempDir(), "missing.nbt")); ok {
		t.Fatalf("missing file should fail")
	}
}
