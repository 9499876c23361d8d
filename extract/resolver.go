package extract

import (
	"fmt"
	"strings"

	"regionstruct/src/nbt"
)

// 方块实体中只表示位置或身份的字段，不进入附加数据
var identityKeys = []string{"id", "x", "y", "z"}

// ResolveOptions 体素解析选项
type ResolveOptions struct {
	// StripSubstrings 键名包含这些子串的方块实体字段会被移除（服务端诊断字段）
	StripSubstrings []string
	// FillUniform 为 true 时，单一调色板且没有数据数组的子区块按整块填充处理
	FillUniform bool
}

// DefaultResolveOptions 默认移除 Paper 服务端写入的字段
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{StripSubstrings: []string{"Paper"}}
}

// ResolveChunk 合并方块实体与子区块方块，得到整个区块的体素列表。
// 顺序：先方块实体，再按子区块顺序、格子扫描顺序排列的地形方块。
// 解码失败的子区块被跳过，其错误一并返回。
func ResolveChunk(c *Chunk, opts ResolveOptions) ([]Voxel, []error) {
	var (
		voxels []Voxel
		errs   []error
	)

	for i, record := range c.BlockEntities {
		v, err := blockEntityVoxel(record, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("区块(%d,%d) 方块实体 #%d: %w", c.X, c.Z, i, err))
			continue
		}
		voxels = append(voxels, v)
	}

	for _, s := range c.Sections {
		sectionVoxels, err := resolveSection(c.X, c.Z, s, opts)
		if err != nil {
			errs = append(errs, &SectionError{ChunkX: c.X, ChunkZ: c.Z, SectionY: s.Y, Err: err})
			continue
		}
		voxels = append(voxels, sectionVoxels...)
	}
	return voxels, errs
}

func blockEntityVoxel(record *nbt.Compound, opts ResolveOptions) (Voxel, error) {
	var pos [3]int
	for i, key := range []string{"x", "y", "z"} {
		n, ok := record.Int(key)
		if !ok {
			return Voxel{}, fmt.Errorf("%w: 方块实体缺少坐标 %s", ErrMalformedChunk, key)
		}
		pos[i] = int(n)
	}

	name, _ := record.String("id")
	if name == "" {
		name, _ = record.String("Name")
	}
	if name == "" {
		return Voxel{}, fmt.Errorf("%w: 方块实体缺少 id", ErrMalformedChunk)
	}

	return Voxel{
		X:     pos[0],
		Y:     pos[1],
		Z:     pos[2],
		State: BlockState{Name: name},
		Extra: StripExtra(record, opts.StripSubstrings),
	}, nil
}

// StripExtra 复制方块实体并移除位置、身份与诊断字段
func StripExtra(record *nbt.Compound, substrings []string) *nbt.Compound {
	extra := record.Clone()
	for _, key := range identityKeys {
		extra.Delete(key)
	}
	for _, key := range extra.Keys() {
		for _, sub := range substrings {
			if sub != "" && strings.Contains(key, sub) {
				extra.Delete(key)
				break
			}
		}
	}
	return extra
}

func resolveSection(chunkX, chunkZ int, s Section, opts ResolveOptions) ([]Voxel, error) {
	if !s.HasData || len(s.Palette) == 0 {
		if opts.FillUniform && len(s.Palette) == 1 && len(s.Words) == 0 {
			return uniformSection(chunkX, chunkZ, s), nil
		}
		return nil, nil
	}

	decode := DecodeIndices
	if s.Spanning {
		decode = DecodeSpanningIndices
	}
	indices, err := decode(len(s.Palette), s.Words, s.Transform)
	if err != nil {
		return nil, err
	}

	baseY := int(s.Y) * SectionSize
	voxels := make([]Voxel, 0, SectionVolume)
	for k, index := range indices {
		state := s.Palette[index]
		if state.IsAir() {
			continue
		}
		x, y, z := CellOffset(k)
		voxels = append(voxels, Voxel{X: chunkX + x, Y: baseY + y, Z: chunkZ + z, State: state})
	}
	return voxels, nil
}

func uniformSection(chunkX, chunkZ int, s Section) []Voxel {
	state := s.Palette[0]
	if state.IsAir() {
		return nil
	}
	baseY := int(s.Y) * SectionSize
	voxels := make([]Voxel, 0, SectionVolume)
	for k := 0; k < SectionVolume; k++ {
		x, y, z := CellOffset(k)
		voxels = append(voxels, Voxel{X: chunkX + x, Y: baseY + y, Z: chunkZ + z, State: state})
	}
	return voxels
}
