package extract

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"regionstruct/src/nbt"
)

// AirName 空气方块名称，这种方块永远不会被收录
const AirName = "minecraft:air"

// Property 方块状态的一个属性
type Property struct {
	Key   string
	Value string
}

// BlockState 方块状态：名称 + 有序属性
type BlockState struct {
	Name       string
	Properties []Property
}

// NewBlockState 创建方块状态，属性按键排序
func NewBlockState(name string, props map[string]string) BlockState {
	s := BlockState{Name: name}
	if len(props) == 0 {
		return s
	}
	s.Properties = make([]Property, 0, len(props))
	for k, v := range props {
		s.Properties = append(s.Properties, Property{Key: k, Value: v})
	}
	sort.Slice(s.Properties, func(i, j int) bool { return s.Properties[i].Key < s.Properties[j].Key })
	return s
}

// IsAir 判断是否为空气
func (s BlockState) IsAir() bool {
	return s.Name == AirName
}

// Equivalent 调色板等价：名称相同且属性集合相同，与属性顺序无关
func (s BlockState) Equivalent(o BlockState) bool {
	if s.Name != o.Name || len(s.Properties) != len(o.Properties) {
		return false
	}
	if len(s.Properties) == 0 {
		return true
	}
	a, b := s.sortedProperties(), o.sortedProperties()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Property 查找属性值
func (s BlockState) Property(key string) (string, bool) {
	for _, p := range s.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// String 形如 minecraft:chest[facing=north,type=single]
func (s BlockState) String() string {
	if len(s.Properties) == 0 {
		return s.Name
	}
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('[')
	for i, p := range s.sortedProperties() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	b.WriteByte(']')
	return b.String()
}

// Hash 调色板索引键，等价的方块状态哈希值相同
func (s BlockState) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(s.Name)
	for _, p := range s.sortedProperties() {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(p.Key)
		_, _ = d.Write([]byte{1})
		_, _ = d.WriteString(p.Value)
	}
	return d.Sum64()
}

// NBT 转换为结构文件调色板条目
func (s BlockState) NBT() *nbt.Compound {
	c := nbt.NewCompound()
	c.Set("Name", s.Name)
	if len(s.Properties) > 0 {
		props := nbt.NewCompound()
		for _, p := range s.sortedProperties() {
			props.Set(p.Key, p.Value)
		}
		c.Set("Properties", props)
	}
	return c
}

func (s BlockState) sortedProperties() []Property {
	if sort.SliceIsSorted(s.Properties, func(i, j int) bool { return s.Properties[i].Key < s.Properties[j].Key }) {
		return s.Properties
	}
	out := make([]Property, len(s.Properties))
	copy(out, s.Properties)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Voxel 一个非空气方块及其附加数据
type Voxel struct {
	X, Y, Z int
	State   BlockState
	// Extra 方块实体数据，普通地形方块为 nil
	Extra *nbt.Compound
}

// Section 区块中 16x16x16 的子区域
type Section struct {
	Y       int8
	Palette []BlockState
	Words   []uint64
	// HasData 为 false 表示缺少调色板或数据数组
	HasData bool
	// Transform 解码前对每个存储字的预处理，nil 表示不处理
	Transform WordTransform
	// Spanning 索引跨字紧密排列（1.16 之前的区块）
	Spanning bool
}

// Chunk 一个区块的只读视图
type Chunk struct {
	DataVersion int32
	// X, Z 区块原点的世界方块坐标（网格坐标 * 16）
	X, Z          int
	BlockEntities []*nbt.Compound
	Sections      []Section
}
