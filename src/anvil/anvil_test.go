package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/save/region"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	"regionstruct/extract"
	"regionstruct/src/nbt"
)

// chunkNBT 构造一个 1.18+ 格式的区块：Y=4 子区块中 k=0 为石头，外加一个箱子
func chunkNBT(t *testing.T, xPos, zPos int32) *nbt.Compound {
	t.Helper()
	indices := make([]uint16, extract.SectionVolume)
	indices[0] = 1
	words, err := extract.EncodeIndices(2, indices)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]int64, len(words))
	for i, w := range words {
		data[i] = int64(w)
	}

	air := nbt.NewCompound()
	air.Set("Name", "minecraft:air")
	stone := nbt.NewCompound()
	stone.Set("Name", "minecraft:stone")
	props := nbt.NewCompound()
	props.Set("waterlogged", "false")
	stone.Set("Properties", props)

	states := nbt.NewCompound()
	states.Set("palette", nbt.NewList(nbt.TagCompound, air, stone))
	states.Set("data", data)
	section := nbt.NewCompound()
	section.Set("Y", int8(4))
	section.Set("block_states", states)

	// 只有调色板、没有数据的子区块
	emptyStates := nbt.NewCompound()
	emptyStates.Set("palette", nbt.NewList(nbt.TagCompound, air.Clone()))
	empty := nbt.NewCompound()
	empty.Set("Y", int8(-4))
	empty.Set("block_states", emptyStates)

	chest := nbt.NewCompound()
	chest.Set("id", "minecraft:chest")
	chest.Set("x", xPos*16+1)
	chest.Set("y", int32(70))
	chest.Set("z", zPos*16+2)
	chest.Set("Items", nbt.NewList(nbt.TagCompound))

	root := nbt.NewCompound()
	root.Set("DataVersion", int32(3700))
	root.Set("xPos", xPos)
	root.Set("zPos", zPos)
	root.Set("sections", nbt.NewList(nbt.TagCompound, empty, section))
	root.Set("block_entities", nbt.NewList(nbt.TagCompound, chest))
	return root
}

func zlibPayload(t *testing.T, root *nbt.Compound) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(CompressionZlib)
	zw := zlib.NewWriter(&buf)
	if err := nbt.Write(zw, "", root); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func rawPayload(t *testing.T, scheme byte, root *nbt.Compound) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(scheme)
	if scheme == CompressionGzip {
		if err := nbt.WriteGzip(&buf, "", root); err != nil {
			t.Fatal(err)
		}
	} else if err := nbt.Write(&buf, "", root); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeRegion(t *testing.T, path string, sectors map[[2]int][]byte) {
	t.Helper()
	r, err := region.Create(path)
	if err != nil {
		t.Fatalf("create region: %v", err)
	}
	for pos, data := range sectors {
		if err := r.WriteSector(pos[0], pos[1], data); err != nil {
			t.Fatalf("write sector %v: %v", pos, err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestParseRegionName(t *testing.T) {
	tests := []struct {
		name string
		x, z int
		ok   bool
	}{
		{"r.0.0.mca", 0, 0, true},
		{"/world/region/r.-3.12.mca", -3, 12, true},
		{"r.1.mca", 0, 0, false},
		{"chunk.mca", 0, 0, false},
	}
	for _, tt := range tests {
		x, z, ok := ParseRegionName(tt.name)
		if ok != tt.ok || x != tt.x || z != tt.z {
			t.Fatalf("ParseRegionName(%q) got (%d,%d,%v)", tt.name, x, z, ok)
		}
	}
}

func TestRegionChunkSchemes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.1.-1.mca")
	writeRegion(t, path, map[[2]int][]byte{
		{0, 0}: zlibPayload(t, chunkNBT(t, 32, -32)),
		{1, 0}: rawPayload(t, CompressionGzip, chunkNBT(t, 33, -32)),
		{0, 1}: rawPayload(t, CompressionNone, chunkNBT(t, 32, -31)),
	})

	r, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	for _, pos := range [][2]int{{0, 0}, {1, 0}, {0, 1}} {
		c, err := r.Chunk(pos[0], pos[1])
		if err != nil {
			t.Fatalf("chunk %v: %v", pos, err)
		}
		if c == nil {
			t.Fatalf("chunk %v missing", pos)
		}
		wantX := (32 + pos[0]) * 16
		wantZ := (-32 + pos[1]) * 16
		if c.X != wantX || c.Z != wantZ || c.DataVersion != 3700 {
			t.Fatalf("chunk %v got origin (%d,%d) version %d", pos, c.X, c.Z, c.DataVersion)
		}
		if len(c.Sections) != 2 || c.Sections[0].HasData || !c.Sections[1].HasData {
			t.Fatalf("chunk %v sections parsed wrong: %+v", pos, c.Sections)
		}
		if len(c.BlockEntities) != 1 {
			t.Fatalf("chunk %v got %d block entities", pos, len(c.BlockEntities))
		}
	}

	c, err := r.Chunk(5, 5)
	if err != nil || c != nil {
		t.Fatalf("empty slot got %v, %v", c, err)
	}
	if _, err := r.Chunk(32, 0); !errors.Is(err, extract.ErrMalformedChunk) {
		t.Fatalf("out of range slot got %v", err)
	}
}

func TestProcessRegionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegion(t, path, map[[2]int][]byte{
		{2, 3}: zlibPayload(t, chunkNBT(t, 2, 3)),
		// 坐标与槽位不符的区块被跳过
		{4, 4}: zlibPayload(t, chunkNBT(t, 9, 9)),
	})

	r, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	res, err := extract.ProcessRegion(r, extract.Options{StructureHeight: 48, Resolve: extract.DefaultResolveOptions()})
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunksRead != 1 || res.ChunksSkipped != 1 {
		t.Fatalf("read %d skipped %d", res.ChunksRead, res.ChunksSkipped)
	}
	if !errors.Is(res.Errors[0], extract.ErrMalformedChunk) {
		t.Fatalf("error got %v", res.Errors[0])
	}
	// 石头在 y=64，箱子在 y=70，同一分段
	if len(res.Structures) != 1 {
		t.Fatalf("got %d structures want 1", len(res.Structures))
	}
	s := res.Structures[0]
	if s.Key() != "32_64_48" {
		t.Fatalf("key got %q", s.Key())
	}
	if len(s.Blocks) != 2 || len(s.Palette) != 2 || s.DataVersion != 3700 {
		t.Fatalf("blocks %d palette %d version %d", len(s.Blocks), len(s.Palette), s.DataVersion)
	}
	if s.Palette[0].Name != "minecraft:chest" {
		t.Fatalf("block entity should come first, got %s", s.Palette[0].Name)
	}
	if v, ok := s.Palette[1].Property("waterlogged"); !ok || v != "false" {
		t.Fatalf("stone properties lost: %v", s.Palette[1])
	}
}

func TestExternalChunk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegion(t, path, map[[2]int][]byte{
		{1, 2}: {CompressionZlib | externalFlag},
	})
	external := zlibPayload(t, chunkNBT(t, 1, 2))[1:]
	if err := os.WriteFile(filepath.Join(dir, "c.1.2.mcc"), external, 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	c, err := r.Chunk(1, 2)
	if err != nil || c == nil {
		t.Fatalf("external chunk got %v, %v", c, err)
	}
	if c.X != 16 || c.Z != 32 {
		t.Fatalf("origin got (%d,%d)", c.X, c.Z)
	}
}

func TestUnknownCompression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.0.0.mca")
	writeRegion(t, path, map[[2]int][]byte{{0, 0}: {9, 1, 2, 3}})
	r, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Chunk(0, 0); !errors.Is(err, extract.ErrMalformedChunk) {
		t.Fatalf("got %v want ErrMalformedChunk", err)
	}
}

func TestOpenMissingRegion(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "r.0.0.mca"), DefaultOptions())
	if !errors.Is(err, extract.ErrRegionRead) {
		t.Fatalf("got %v want ErrRegionRead", err)
	}
}

func lz4Block(method byte, payload, original []byte) []byte {
	var buf bytes.Buffer
	buf.Write(lz4BlockMagic)
	buf.WriteByte(method)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(payload)))
	buf.Write(n[:])
	binary.LittleEndian.PutUint32(n[:], uint32(len(original)))
	buf.Write(n[:])
	buf.Write([]byte{0, 0, 0, 0})
	buf.Write(payload)
	return buf.Bytes()
}

func TestDecodeLZ4Block(t *testing.T) {
	original := bytes.Repeat([]byte("minecraft:stone "), 256)
	compressed := make([]byte, lz4.CompressBlockBound(len(original)))
	n, err := lz4.CompressBlock(original, compressed, nil)
	if err != nil || n == 0 {
		t.Fatalf("compress: n=%d err=%v", n, err)
	}
	raw := []byte("tail")

	var stream []byte
	stream = append(stream, lz4Block(lz4MethodLZ4, compressed[:n], original)...)
	stream = append(stream, lz4Block(lz4MethodRaw, raw, raw)...)
	stream = append(stream, lz4Block(lz4MethodRaw, nil, nil)...)

	got, err := decodeLZ4Block(stream)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := append(append([]byte(nil), original...), raw...)
	if !bytes.Equal(got, want) {
		t.Fatalf("decoded %d bytes want %d", len(got), len(want))
	}

	if _, err := decodeLZ4Block([]byte("LZ4Bloc")); err == nil {
		t.Fatalf("expected error for short header")
	}
}

func TestLegacyChunk(t *testing.T) {
	indices := make([]uint16, extract.SectionVolume)
	indices[1] = 1
	words, _ := extract.EncodeIndices(2, indices)
	states := make([]int64, len(words))
	for i, w := range words {
		states[i] = int64(w)
	}
	air := nbt.NewCompound()
	air.Set("Name", "minecraft:air")
	dirt := nbt.NewCompound()
	dirt.Set("Name", "minecraft:dirt")
	section := nbt.NewCompound()
	section.Set("Y", int8(0))
	section.Set("Palette", nbt.NewList(nbt.TagCompound, air, dirt))
	section.Set("BlockStates", states)

	level := nbt.NewCompound()
	level.Set("xPos", int32(-1))
	level.Set("zPos", int32(2))
	level.Set("Sections", nbt.NewList(nbt.TagCompound, section))
	level.Set("TileEntities", nbt.NewList(nbt.TagCompound))
	root := nbt.NewCompound()
	root.Set("DataVersion", int32(2586))
	root.Set("Level", level)

	c, err := ChunkFromNBT(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.X != -16 || c.Z != 32 || c.DataVersion != 2586 {
		t.Fatalf("got origin (%d,%d) version %d", c.X, c.Z, c.DataVersion)
	}
	voxels, errs := extract.ResolveChunk(c, extract.ResolveOptions{})
	if len(errs) != 0 || len(voxels) != 1 {
		t.Fatalf("got %d voxels, errors %v", len(voxels), errs)
	}
	if v := voxels[0]; v.X != -15 || v.Y != 0 || v.Z != 32 || v.State.Name != "minecraft:dirt" {
		t.Fatalf("voxel got %+v", v)
	}
}

func TestChunkMissingPosition(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("DataVersion", int32(3700))
	if _, err := ChunkFromNBT(root, DefaultOptions()); !errors.Is(err, extract.ErrMalformedChunk) {
		t.Fatalf("got %v want ErrMalformedChunk", err)
	}
}

// legacySection 构造一个 1.16 之前跨字排列的子区块：17 种方块，位宽 5
func legacySection(t *testing.T, cells map[int]uint16) *nbt.Compound {
	t.Helper()
	indices := make([]uint16, extract.SectionVolume)
	for k, v := range cells {
		indices[k] = v
	}
	words, err := extract.EncodeSpanningIndices(17, indices)
	if err != nil {
		t.Fatal(err)
	}
	states := make([]int64, len(words))
	for i, w := range words {
		states[i] = int64(w)
	}
	var palette []any
	for i := 0; i < 17; i++ {
		entry := nbt.NewCompound()
		if i == 0 {
			entry.Set("Name", "minecraft:air")
		} else {
			entry.Set("Name", fmt.Sprintf("minecraft:block_%d", i))
		}
		palette = append(palette, entry)
	}
	section := nbt.NewCompound()
	section.Set("Y", int8(1))
	section.Set("Palette", nbt.NewList(nbt.TagCompound, palette...))
	section.Set("BlockStates", states)
	return section
}

func TestLegacySpanningChunk(t *testing.T) {
	level := nbt.NewCompound()
	level.Set("xPos", int32(0))
	level.Set("zPos", int32(0))
	level.Set("Sections", nbt.NewList(nbt.TagCompound, legacySection(t, map[int]uint16{12: 16, 13: 3})))
	root := nbt.NewCompound()
	root.Set("DataVersion", int32(2230))
	root.Set("Level", level)

	c, err := ChunkFromNBT(root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !c.Sections[0].Spanning || len(c.Sections[0].Words) != 320 {
		t.Fatalf("section spanning=%v words=%d", c.Sections[0].Spanning, len(c.Sections[0].Words))
	}
	voxels, errs := extract.ResolveChunk(c, extract.ResolveOptions{})
	if len(errs) != 0 || len(voxels) != 2 {
		t.Fatalf("got %d voxels, errors %v", len(voxels), errs)
	}
	if v := voxels[0]; v.X != 12 || v.Y != 16 || v.Z != 0 || v.State.Name != "minecraft:block_16" {
		t.Fatalf("voxel 0 got %+v", v)
	}
	if v := voxels[1]; v.X != 13 || v.State.Name != "minecraft:block_3" {
		t.Fatalf("voxel 1 got %+v", v)
	}

	// 1.16 之后的同一布局不是跨字排列
	root.Set("DataVersion", int32(2586))
	c, err = ChunkFromNBT(root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if c.Sections[0].Spanning {
		t.Fatalf("DataVersion 2586 should use the padded layout")
	}
}

func TestPaletteNonStringProperty(t *testing.T) {
	props := nbt.NewCompound()
	props.Set("level", int32(3))
	water := nbt.NewCompound()
	water.Set("Name", "minecraft:water")
	water.Set("Properties", props)
	states := nbt.NewCompound()
	states.Set("palette", nbt.NewList(nbt.TagCompound, water))
	section := nbt.NewCompound()
	section.Set("Y", int8(0))
	section.Set("block_states", states)

	root := nbt.NewCompound()
	root.Set("DataVersion", int32(3700))
	root.Set("xPos", int32(0))
	root.Set("zPos", int32(0))
	root.Set("sections", nbt.NewList(nbt.TagCompound, section))
	if _, err := ChunkFromNBT(root, DefaultOptions()); !errors.Is(err, extract.ErrMalformedChunk) {
		t.Fatalf("got %v want ErrMalformedChunk", err)
	}
}
