package anvil

import (
	"fmt"

	"regionstruct/extract"
	"regionstruct/src/nbt"
)

// SpanningLayoutBefore 低于此数据版本（1.16 快照 20w17a）的区块，方块索引跨字紧密排列
const SpanningLayoutBefore = 2527

// ChunkFromNBT 把区块NBT树转换为 extract.Chunk。
// 1.18 之前的区块（Level 包裹、Palette/BlockStates 字段）同样支持，
// 1.16 之前的跨字排列按 Section.Spanning 解码。调色板属性值必须是字符串。
func ChunkFromNBT(root *nbt.Compound, opts Options) (*extract.Chunk, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: 区块为空", extract.ErrMalformedChunk)
	}

	level := root
	legacy := false
	if !root.Has("sections") {
		if l, ok := root.Compound("Level"); ok {
			level = l
			legacy = true
		}
	}

	dataVersion, _ := root.Int("DataVersion")
	xPos, okX := level.Int("xPos")
	zPos, okZ := level.Int("zPos")
	if !okX || !okZ {
		return nil, fmt.Errorf("%w: 缺少 xPos/zPos", extract.ErrMalformedChunk)
	}

	c := &extract.Chunk{
		DataVersion: int32(dataVersion),
		X:           int(xPos) * extract.SectionSize,
		Z:           int(zPos) * extract.SectionSize,
	}

	entitiesKey, sectionsKey := "block_entities", "sections"
	if legacy {
		entitiesKey, sectionsKey = "TileEntities", "Sections"
	}

	if entities, ok := level.List(entitiesKey); ok {
		c.BlockEntities = entities.Compounds()
	}

	sections, ok := level.List(sectionsKey)
	if !ok {
		return c, nil
	}
	spanning := legacy && dataVersion < SpanningLayoutBefore
	for _, s := range sections.Compounds() {
		section, err := sectionFromNBT(s, legacy, spanning, opts)
		if err != nil {
			return nil, err
		}
		c.Sections = append(c.Sections, section)
	}
	return c, nil
}

func sectionFromNBT(s *nbt.Compound, legacy, spanning bool, opts Options) (extract.Section, error) {
	y, ok := s.Int("Y")
	if !ok {
		return extract.Section{}, fmt.Errorf("%w: 子区块缺少 Y", extract.ErrMalformedChunk)
	}
	section := extract.Section{Y: int8(y), Spanning: spanning}
	if opts.SwapWordHalves {
		section.Transform = extract.SwapHalves
	}

	holder, paletteKey, dataKey := s, "Palette", "BlockStates"
	if !legacy {
		states, ok := s.Compound("block_states")
		if !ok {
			return section, nil
		}
		holder, paletteKey, dataKey = states, "palette", "data"
	}

	palette, hasPalette := holder.List(paletteKey)
	if hasPalette {
		for _, entry := range palette.Compounds() {
			state, err := blockStateFromNBT(entry)
			if err != nil {
				return section, fmt.Errorf("%w: 子区块 Y=%d: %v", extract.ErrMalformedChunk, y, err)
			}
			section.Palette = append(section.Palette, state)
		}
	}
	words, hasData := holder.LongArray(dataKey)
	if hasData {
		section.Words = make([]uint64, len(words))
		for i, w := range words {
			section.Words[i] = uint64(w)
		}
	}
	section.HasData = hasPalette && hasData && len(section.Palette) > 0
	return section, nil
}

func blockStateFromNBT(entry *nbt.Compound) (extract.BlockState, error) {
	name, _ := entry.String("Name")
	props, ok := entry.Compound("Properties")
	if !ok || props.Len() == 0 {
		return extract.BlockState{Name: name}, nil
	}
	m := make(map[string]string, props.Len())
	for _, k := range props.Keys() {
		v, ok := props.String(k)
		if !ok {
			return extract.BlockState{}, fmt.Errorf("方块 %s 的属性 %s 不是字符串", name, k)
		}
		m[k] = v
	}
	return extract.NewBlockState(name, m), nil
}
