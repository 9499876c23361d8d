package format

import (
	"fmt"
	"os"

	"regionstruct/src/nbt"
)

// VerifyStructureFile 读回结构文件并检查内容是否完整
func VerifyStructureFile(filePath string) (bool, string) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Sprintf("无法打开文件: %v", err)
	}
	defer file.Close()

	// 解析NBT数据
	_, root, err := nbt.ReadGzip(file)
	if err != nil {
		return false, fmt.Sprintf("NBT解析失败: %v", err)
	}

	// 检查必需字段
	requiredFields := []string{"size", "DataVersion", "entities", "palette", "blocks"}
	missingFields := []string{}
	for _, field := range requiredFields {
		if !root.Has(field) {
			missingFields = append(missingFields, field)
		}
	}
	if len(missingFields) > 0 {
		return false, fmt.Sprintf("文件缺少必要字段: %v", missingFields)
	}

	// 检查尺寸数据
	size, ok := intTriple(root, "size")
	if !ok {
		return false, "size字段格式错误"
	}
	for _, n := range size {
		if n <= 0 || n > 0xFFFF {
			return false, fmt.Sprintf("结构尺寸无效: %v", size)
		}
	}

	// 检查调色板：名称必须存在且条目不重复
	palette, ok := root.List("palette")
	if !ok || (palette.Elem != nbt.TagCompound && len(palette.Items) > 0) {
		return false, "palette字段格式错误"
	}
	entries := palette.Compounds()
	if len(entries) == 0 {
		return false, "调色板为空"
	}
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		name, ok := entry.String("Name")
		if !ok || name == "" {
			return false, fmt.Sprintf("调色板条目 %d 缺少Name", i)
		}
		key := paletteKey(name, entry)
		if seen[key] {
			return false, fmt.Sprintf("调色板条目重复: %s", key)
		}
		seen[key] = true
	}

	// 检查方块：状态索引在范围内，位置在尺寸内且唯一
	blocks, ok := root.List("blocks")
	if !ok {
		return false, "blocks字段格式错误"
	}
	positions := make(map[[3]int]bool, len(blocks.Items))
	for i, block := range blocks.Compounds() {
		state, ok := block.Int("state")
		if !ok || state < 0 || int(state) >= len(entries) {
			return false, fmt.Sprintf("方块 %d 的状态索引无效", i)
		}
		pos, ok := intTriple(block, "pos")
		if !ok {
			return false, fmt.Sprintf("方块 %d 缺少pos", i)
		}
		for axis := range pos {
			if pos[axis] < 0 || pos[axis] >= size[axis] {
				return false, fmt.Sprintf("方块 %d 位置越界: %v", i, pos)
			}
		}
		if positions[pos] {
			return false, fmt.Sprintf("方块位置重复: %v", pos)
		}
		positions[pos] = true
	}

	return true, "文件验证通过"
}

func intTriple(c *nbt.Compound, key string) ([3]int, bool) {
	var out [3]int
	l, ok := c.List(key)
	if !ok || len(l.Items) != 3 {
		return out, false
	}
	for i, item := range l.Items {
		n, ok := item.(int32)
		if !ok {
			return out, false
		}
		out[i] = int(n)
	}
	return out, true
}

func paletteKey(name string, entry *nbt.Compound) string {
	props, ok := entry.Compound("Properties")
	if !ok {
		return name
	}
	key := name + "["
	for i, k := range props.Keys() {
		if i > 0 {
			key += ","
		}
		v, _ := props.String(k)
		key += k + "=" + v
	}
	return key + "]"
}

// AskAutoVerification 询问是否启用自动验证
func AskAutoVerification() bool {
	fmt.Print("\n🔍 是否启用自动验证? (y/n, 回车默认为y): ")
	var input string
	fmt.Scanln(&input)

	// 如果输入为空或为y/yes，则启用自动验证
	return input == "" || input == "y" || input == "yes" || input == "Y" || input == "YES"
}
