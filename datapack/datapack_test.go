package datapack

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

func structureDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("nbt:"+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(b)
	}
	return out
}

func TestListStructures(t *testing.T) {
	dir := structureDir(t, "16_0_0.nbt", "0_-64_0.nbt", "notes.nbt", "0_0_0.json")
	got, err := ListStructures(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "0_-64_0.nbt"), filepath.Join(dir, "16_0_0.nbt")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListStructures got %v want %v", got, want)
	}
}

func TestBuildSinglePack(t *testing.T) {
	dir := structureDir(t, "0_-64_0.nbt", "0_-16_0.nbt", "16_0_0.nbt", "readme.txt")
	opts := DefaultOptions()
	opts.Namespace = "ns"
	opts.Name = "Test"
	opts.ChunksPerTick = 1

	out, err := Build(dir, filepath.Join(t.TempDir(), "packs"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || filepath.Base(out[0]) != "structures.zip" {
		t.Fatalf("packs got %v", out)
	}
	entries := readZip(t, out[0])

	var meta struct {
		Pack struct {
			PackFormat  int    `json:"pack_format"`
			Description string `json:"description"`
		} `json:"pack"`
	}
	if err := json.Unmarshal([]byte(entries["pack.mcmeta"]), &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Pack.PackFormat != 26 || meta.Pack.Description != "Test" {
		t.Fatalf("pack.mcmeta got %+v", meta)
	}

	if entries["data/ns/structures/0_-64_0.nbt"] != "nbt:0_-64_0.nbt" {
		t.Fatalf("structure entry not copied")
	}

	tests := []struct {
		name string
		want string
	}{
		{"chunks/0_0", "place template ns:0_-16_0 0 -16 0\nplace template ns:0_-64_0 0 -64 0\nforceload remove 0 0"},
		{"chunks/16_0", "place template ns:16_0_0 16 0 0\nforceload remove 16 0"},
		{"place/0", "forceload add 0 0\nschedule function ns:chunks/0_0 20t\nschedule function ns:place/1 1t\n" +
			`tellraw @a [{"text":"[Test] ","color":"gold"},{"text":"Progression: 0/2","color":"white"}]`},
		{"place/1", "forceload add 16 0\nschedule function ns:chunks/16_0 20t\n" +
			`tellraw @a [{"text":"[Test] ","color":"gold"},{"text":"Progression: 1/2","color":"white"}]`},
		{"_place_everything", "function ns:place/0"},
	}
	for _, tt := range tests {
		got, ok := entries["data/ns/functions/"+tt.name+".mcfunction"]
		if !ok {
			t.Fatalf("function %s missing", tt.name)
		}
		if got != tt.want {
			t.Fatalf("function %s got\n%s\nwant\n%s", tt.name, got, tt.want)
		}
	}
	if len(entries) != 1+3+len(tests) {
		t.Fatalf("zip entries got %d", len(entries))
	}
}

func TestBuildSplits(t *testing.T) {
	dir := structureDir(t, "0_0_0.nbt", "16_0_0.nbt", "32_0_0.nbt")
	opts := DefaultOptions()
	opts.Splits = 5
	var progress []int
	opts.Progress = func(done, total int, name string) { progress = append(progress, done*10+total) }

	out, err := Build(dir, t.TempDir(), opts)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range out {
		names = append(names, filepath.Base(p))
	}
	if !reflect.DeepEqual(names, []string{"structures_1.zip", "structures_2.zip", "structures_3.zip"}) {
		t.Fatalf("split names got %v", names)
	}
	if !reflect.DeepEqual(progress, []int{13, 23, 33}) {
		t.Fatalf("progress got %v", progress)
	}

	entries := readZip(t, out[1])
	var keys []string
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ns := "regions_to_structures_2"
	if _, ok := entries["data/"+ns+"/structures/16_0_0.nbt"]; !ok {
		t.Fatalf("second pack entries got %v", keys)
	}
	if got := entries["data/"+ns+"/functions/_place_everything.mcfunction"]; got != "function "+ns+":place/0" {
		t.Fatalf("_place_everything got %q", got)
	}
	if !json.Valid([]byte(entries["pack.mcmeta"])) {
		t.Fatalf("pack.mcmeta invalid")
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(structureDir(t, "notes.txt"), t.TempDir(), DefaultOptions()); err == nil {
		t.Fatalf("expected error for empty structure dir")
	}
	opts := DefaultOptions()
	opts.ChunksPerTick = 0
	if _, err := Build(structureDir(t, "0_0_0.nbt"), t.TempDir(), opts); err == nil {
		t.Fatalf("expected error for zero chunks per tick")
	}
}

func TestPackMeta(t *testing.T) {
	b, err := PackMeta(15, "desc")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n\t\"pack\": {\n\t\t\"description\": \"desc\",\n\t\t\"pack_format\": 15\n\t}\n}\n"
	if string(b) != want {
		t.Fatalf("PackMeta got %q want %q", b, want)
	}
}
