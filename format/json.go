package format

import (
	"encoding/json"
	"os"
	"path/filepath"

	"regionstruct/extract"
)

// document 结构的逻辑内容，JSON 与 CBOR 输出共用
type document struct {
	Origin      [3]int         `json:"origin"`
	Size        [3]int         `json:"size"`
	DataVersion int32          `json:"data_version"`
	Palette     []paletteEntry `json:"palette"`
	Blocks      []blockEntry   `json:"blocks"`
}

type paletteEntry struct {
	Name       string            `json:"Name"`
	Properties map[string]string `json:"Properties,omitempty"`
}

type blockEntry struct {
	State int            `json:"state"`
	Pos   [3]int         `json:"pos"`
	NBT   map[string]any `json:"nbt,omitempty"`
}

func newDocument(s *extract.Structure) document {
	doc := document{
		Origin:      s.Origin,
		Size:        s.Size,
		DataVersion: s.DataVersion,
		Palette:     make([]paletteEntry, 0, len(s.Palette)),
		Blocks:      make([]blockEntry, 0, len(s.Blocks)),
	}
	for _, state := range s.Palette {
		entry := paletteEntry{Name: state.Name}
		if len(state.Properties) > 0 {
			entry.Properties = make(map[string]string, len(state.Properties))
			for _, p := range state.Properties {
				entry.Properties[p.Key] = p.Value
			}
		}
		doc.Palette = append(doc.Palette, entry)
	}
	for _, b := range s.Blocks {
		doc.Blocks = append(doc.Blocks, blockEntry{State: b.State, Pos: b.Pos, NBT: b.Extra.Plain()})
	}
	return doc
}

// JSONEmitter JSON格式输出器，便于检查结构内容
type JSONEmitter struct {
	Indent string
}

// NewJSONEmitter 创建新的JSON输出器
func NewJSONEmitter() *JSONEmitter {
	return &JSONEmitter{Indent: "  "}
}

// GetFormatName 获取格式名称
func (j *JSONEmitter) GetFormatName() string {
	return "json"
}

// GetExtension 获取文件扩展名
func (j *JSONEmitter) GetExtension() string {
	return ".json"
}

// Emit 保存JSON文件
func (j *JSONEmitter) Emit(dir string, s *extract.Structure) (string, error) {
	if err := checkBounds(s); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(newDocument(s), "", j.Indent)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, StructureFileName(s, j.GetExtension()))
	return path, os.WriteFile(path, data, 0644)
}
