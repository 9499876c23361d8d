package extract

import (
	"fmt"

	"regionstruct/src/nbt"
)

// Block 结构中的一个方块记录
type Block struct {
	// Pos 相对结构原点的坐标
	Pos   [3]int
	State int
	Extra *nbt.Compound
}

// Structure 输出单元：一个有界体积的调色板与方块列表
type Structure struct {
	Origin      [3]int
	Size        [3]int
	DataVersion int32
	Palette     []BlockState
	Blocks      []Block
}

// Key 结构文件名主体 {min_x}_{min_y}_{min_z}，下游放置工具从中解析世界坐标
func (s *Structure) Key() string {
	return fmt.Sprintf("%d_%d_%d", s.Origin[0], s.Origin[1], s.Origin[2])
}

// paletteBuilder 以等价键索引的调色板，保持首次出现顺序
type paletteBuilder struct {
	states []BlockState
	index  map[uint64][]int
}

func newPaletteBuilder() *paletteBuilder {
	return &paletteBuilder{index: make(map[uint64][]int)}
}

func (p *paletteBuilder) indexOf(s BlockState) int {
	h := s.Hash()
	for _, i := range p.index[h] {
		if p.states[i].Equivalent(s) {
			return i
		}
	}
	i := len(p.states)
	p.states = append(p.states, s)
	p.index[h] = append(p.index[h], i)
	return i
}

// BuildStructure 为一个分段的体素建立去重调色板和按位置合并的方块记录。
// 同一位置出现多条记录时：后处理记录的 state 生效，附加数据取并集，冲突键以后者为准。
func BuildStructure(voxels []Voxel) *Structure {
	if len(voxels) == 0 {
		return nil
	}

	lo := [3]int{voxels[0].X, voxels[0].Y, voxels[0].Z}
	hi := lo
	for _, v := range voxels[1:] {
		p := [3]int{v.X, v.Y, v.Z}
		for i := range p {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}

	s := &Structure{
		Origin: lo,
		Size:   [3]int{hi[0] - lo[0] + 1, hi[1] - lo[1] + 1, hi[2] - lo[2] + 1},
	}

	palette := newPaletteBuilder()
	byPos := make(map[[3]int]int, len(voxels))
	for _, v := range voxels {
		state := palette.indexOf(v.State)
		pos := [3]int{v.X - lo[0], v.Y - lo[1], v.Z - lo[2]}

		i, seen := byPos[pos]
		if !seen {
			byPos[pos] = len(s.Blocks)
			s.Blocks = append(s.Blocks, Block{Pos: pos, State: state, Extra: v.Extra.Clone()})
			continue
		}

		existing := &s.Blocks[i]
		existing.State = state
		if v.Extra != nil {
			if existing.Extra == nil {
				existing.Extra = v.Extra.Clone()
			} else {
				existing.Extra.Merge(v.Extra)
			}
		}
	}
	s.Palette = palette.states
	return s
}
