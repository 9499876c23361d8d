package anvil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4Block 流格式：每块 21 字节头（魔数、方法、压缩长度、原始长度、校验和）加数据，
// 原始长度为 0 的块表示结束。
var lz4BlockMagic = []byte("LZ4Block")

const (
	lz4HeaderSize   = 8 + 1 + 4 + 4 + 4
	lz4MethodRaw    = 0x10
	lz4MethodLZ4    = 0x20
	lz4MaxBlockSize = 1 << 25
)

func decodeLZ4Block(src []byte) ([]byte, error) {
	var out bytes.Buffer
	for len(src) > 0 {
		if len(src) < lz4HeaderSize || !bytes.Equal(src[:8], lz4BlockMagic) {
			return nil, fmt.Errorf("LZ4Block 头无效")
		}
		method := src[8] & 0xF0
		compressedLen := int(binary.LittleEndian.Uint32(src[9:13]))
		originalLen := int(binary.LittleEndian.Uint32(src[13:17]))
		src = src[lz4HeaderSize:]

		if originalLen == 0 {
			break
		}
		if compressedLen < 0 || compressedLen > len(src) || originalLen > lz4MaxBlockSize {
			return nil, fmt.Errorf("LZ4Block 长度无效: compressed=%d original=%d", compressedLen, originalLen)
		}

		block := src[:compressedLen]
		src = src[compressedLen:]
		switch method {
		case lz4MethodRaw:
			out.Write(block)
		case lz4MethodLZ4:
			dst := make([]byte, originalLen)
			n, err := lz4.UncompressBlock(block, dst)
			if err != nil {
				return nil, fmt.Errorf("LZ4 解压失败: %w", err)
			}
			if n != originalLen {
				return nil, fmt.Errorf("LZ4 解压长度 %d，期望 %d", n, originalLen)
			}
			out.Write(dst)
		default:
			return nil, fmt.Errorf("未知的 LZ4Block 方法 0x%x", method)
		}
	}
	return out.Bytes(), nil
}
