package format

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"regionstruct/extract"
)

// ProgressCallback 定义进度回调函数类型
type ProgressCallback func(current, total int, message string)

// Emitter 定义结构输出器接口
type Emitter interface {
	// Emit 把结构写入 dir，返回文件路径
	Emit(dir string, s *extract.Structure) (string, error)
	GetFormatName() string
	GetExtension() string
}

var structureNamePattern = regexp.MustCompile(`^(-?\d+)_(-?\d+)_(-?\d+)$`)

// StructureFileName 结构文件名 {min_x}_{min_y}_{min_z}{ext}
func StructureFileName(s *extract.Structure, ext string) string {
	return s.Key() + ext
}

// ParseStructureName 从文件名解析世界坐标，扩展名可有可无
func ParseStructureName(name string) (x, y, z int, ok bool) {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	m := structureNamePattern.FindStringSubmatch(base)
	if m == nil {
		return 0, 0, 0, false
	}
	x, _ = strconv.Atoi(m[1])
	y, _ = strconv.Atoi(m[2])
	z, _ = strconv.Atoi(m[3])
	return x, y, z, true
}

// checkBounds 结构尺寸与坐标必须能放进无符号16位
func checkBounds(s *extract.Structure) error {
	for i, n := range s.Size {
		if n <= 0 || n > 0xFFFF {
			return fmt.Errorf("结构 %s 尺寸第 %d 维无效: %d", s.Key(), i, n)
		}
	}
	return nil
}
