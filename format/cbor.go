package format

import (
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"regionstruct/extract"
)

// encMode 使用核心确定性编码：相同结构总是得到相同字节
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("format: CBOR encoder initialization failed: " + err.Error())
	}
}

// CBOREmitter 紧凑二进制输出器
type CBOREmitter struct{}

// NewCBOREmitter 创建CBOR输出器
func NewCBOREmitter() *CBOREmitter {
	return &CBOREmitter{}
}

// GetFormatName 获取格式名称
func (c *CBOREmitter) GetFormatName() string {
	return "cbor"
}

// GetExtension 获取文件扩展名
func (c *CBOREmitter) GetExtension() string {
	return ".cbor"
}

// Emit 保存CBOR文件
func (c *CBOREmitter) Emit(dir string, s *extract.Structure) (string, error) {
	if err := checkBounds(s); err != nil {
		return "", err
	}
	data, err := encMode.Marshal(newDocument(s))
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, StructureFileName(s, c.GetExtension()))
	return path, os.WriteFile(path, data, 0644)
}
