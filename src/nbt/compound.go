package nbt

import "fmt"

// Compound 有序复合标签，读写时保持键的插入顺序
type Compound struct {
	keys   []string
	values map[string]any
}

// List 列表标签，所有元素类型相同
type List struct {
	Elem  TagType
	Items []any
}

// NewCompound 创建空的复合标签
func NewCompound() *Compound {
	return &Compound{values: make(map[string]any)}
}

// NewList 创建指定元素类型的列表
func NewList(elem TagType, items ...any) *List {
	return &List{Elem: elem, Items: items}
}

// Len 返回键数量
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys 按插入顺序返回所有键
func (c *Compound) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get 获取键对应的值
func (c *Compound) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// Has 判断键是否存在
func (c *Compound) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set 设置键值；已存在的键保持原位置
func (c *Compound) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Delete 删除键
func (c *Compound) Delete(key string) {
	if c == nil {
		return
	}
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Merge 把 other 的所有键并入 c，冲突时 other 的值覆盖
func (c *Compound) Merge(other *Compound) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		c.Set(k, cloneValue(other.values[k]))
	}
}

// Clone 深拷贝
func (c *Compound) Clone() *Compound {
	if c == nil {
		return nil
	}
	out := &Compound{
		keys:   make([]string, len(c.keys)),
		values: make(map[string]any, len(c.values)),
	}
	copy(out.keys, c.keys)
	for k, v := range c.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Compound:
		return t.Clone()
	case *List:
		items := make([]any, len(t.Items))
		for i, item := range t.Items {
			items[i] = cloneValue(item)
		}
		return &List{Elem: t.Elem, Items: items}
	case []byte:
		return append([]byte(nil), t...)
	case []int32:
		return append([]int32(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	default:
		return v
	}
}

// Int 以整数读取数值标签（Byte/Short/Int/Long 均可）
func (c *Compound) Int(key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// String 读取字符串标签
func (c *Compound) String(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Compound 读取子复合标签
func (c *Compound) Compound(key string) (*Compound, bool) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Compound)
	return sub, ok && sub != nil
}

// List 读取列表标签
func (c *Compound) List(key string) (*List, bool) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	l, ok := v.(*List)
	return l, ok && l != nil
}

// LongArray 读取长整型数组标签
func (c *Compound) LongArray(key string) ([]int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := v.([]int64)
	return a, ok
}

// Compounds 返回列表中的复合标签元素，跳过其他类型
func (l *List) Compounds() []*Compound {
	if l == nil {
		return nil
	}
	out := make([]*Compound, 0, len(l.Items))
	for _, item := range l.Items {
		if c, ok := item.(*Compound); ok && c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Plain 转换为 map[string]any，供 JSON/CBOR 导出使用
func (c *Compound) Plain() map[string]any {
	if c == nil {
		return nil
	}
	out := make(map[string]any, len(c.keys))
	for _, k := range c.keys {
		out[k] = plainValue(c.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Compound:
		return t.Plain()
	case *List:
		items := make([]any, len(t.Items))
		for i, item := range t.Items {
			items[i] = plainValue(item)
		}
		return items
	default:
		return v
	}
}

// GoString 便于调试输出
func (c *Compound) GoString() string {
	return fmt.Sprintf("nbt.Compound%v", c.Plain())
}
