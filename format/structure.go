package format

import (
	"fmt"
	"os"
	"path/filepath"

	"regionstruct/extract"
	"regionstruct/src/nbt"
)

// StructureEmitter 原版结构文件（gzip 压缩的 NBT）输出器
type StructureEmitter struct{}

// NewStructureEmitter 创建结构文件输出器
func NewStructureEmitter() *StructureEmitter {
	return &StructureEmitter{}
}

// GetFormatName 获取格式名称
func (e *StructureEmitter) GetFormatName() string {
	return "nbt"
}

// GetExtension 获取文件扩展名
func (e *StructureEmitter) GetExtension() string {
	return ".nbt"
}

// Emit 保存结构文件
func (e *StructureEmitter) Emit(dir string, s *extract.Structure) (string, error) {
	root, err := StructureNBT(s)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, StructureFileName(s, e.GetExtension()))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := nbt.WriteGzip(file, "", root); err != nil {
		return "", fmt.Errorf("写入结构 %s 失败: %w", s.Key(), err)
	}
	return path, file.Close()
}

// StructureNBT 生成结构文件的NBT树
func StructureNBT(s *extract.Structure) (*nbt.Compound, error) {
	if err := checkBounds(s); err != nil {
		return nil, err
	}

	root := nbt.NewCompound()
	root.Set("size", intList(s.Size))
	root.Set("DataVersion", s.DataVersion)
	root.Set("entities", nbt.NewList(nbt.TagCompound))

	palette := nbt.NewList(nbt.TagCompound)
	for _, state := range s.Palette {
		palette.Items = append(palette.Items, state.NBT())
	}
	root.Set("palette", palette)

	blocks := nbt.NewList(nbt.TagCompound)
	for _, b := range s.Blocks {
		block := nbt.NewCompound()
		block.Set("state", int32(b.State))
		block.Set("pos", intList(b.Pos))
		if b.Extra != nil {
			block.Set("nbt", b.Extra.Clone())
		}
		blocks.Items = append(blocks.Items, block)
	}
	root.Set("blocks", blocks)
	return root, nil
}

func intList(v [3]int) *nbt.List {
	return nbt.NewList(nbt.TagInt, int32(v[0]), int32(v[1]), int32(v[2]))
}
