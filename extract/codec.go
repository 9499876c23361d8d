package extract

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	// SectionSize 子区块边长
	SectionSize = 16
	// SectionVolume 每个子区块的方块数
	SectionVolume = SectionSize * SectionSize * SectionSize
	// MinBitsPerIndex 调色板索引的最小位宽
	MinBitsPerIndex = 4
)

// WordTransform 存储字预处理函数
type WordTransform func(uint64) uint64

// BitsPerIndex 计算调色板索引位宽: max(4, ceil(log2(paletteLen)))
func BitsPerIndex(paletteLen int) int {
	if paletteLen <= 1 {
		return MinBitsPerIndex
	}
	return max(MinBitsPerIndex, bits.Len(uint(paletteLen-1)))
}

// WordsRequired 给定位宽时存放 4096 个索引需要的存储字数量（索引不跨字）
func WordsRequired(bitsPerIndex int) int {
	perWord := 64 / bitsPerIndex
	return (SectionVolume + perWord - 1) / perWord
}

// SpanningWordsRequired 1.16 之前的紧密排列需要的存储字数量（索引可以跨字）
func SpanningWordsRequired(bitsPerIndex int) int {
	return (SectionVolume*bitsPerIndex + 63) / 64
}

// SwapHalves 把存储字拆成高低两个 32 位，按大端写入 8 字节缓冲后重新读出。
// 用于修正上游读取器的整数表示。
func SwapHalves(word uint64) uint64 {
	high := uint32(word >> 32)
	low := uint32(word & 0xFFFFFFFF)
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], high)
	binary.BigEndian.PutUint32(buf[4:], low)
	return binary.BigEndian.Uint64(buf[:])
}

// DecodeIndices 把打包的存储字解码为 4096 个调色板索引。
// 每个字从低位开始消费，剩余位数不足一个索引时丢弃并转到下一个字。
func DecodeIndices(paletteLen int, words []uint64, transform WordTransform) ([]uint16, error) {
	if paletteLen < 1 {
		return nil, fmt.Errorf("%w: 调色板为空", ErrMalformedSection)
	}
	bitsPerIndex := BitsPerIndex(paletteLen)
	need := WordsRequired(bitsPerIndex)
	if len(words) < need {
		return nil, fmt.Errorf("%w: 需要 %d 个存储字(位宽 %d)，实际 %d 个", ErrDecodeFault, need, bitsPerIndex, len(words))
	}

	mask := uint64(1)<<bitsPerIndex - 1
	out := make([]uint16, SectionVolume)

	wordIndex := 0
	data := words[0]
	if transform != nil {
		data = transform(data)
	}
	dataLength := 64

	for k := 0; k < SectionVolume; k++ {
		if dataLength < bitsPerIndex {
			wordIndex++
			data = words[wordIndex]
			if transform != nil {
				data = transform(data)
			}
			dataLength = 64
		}
		index := data & mask
		if index >= uint64(paletteLen) {
			return nil, fmt.Errorf("%w: 第 %d 个方块索引 %d 超出调色板大小 %d", ErrDecodeFault, k, index, paletteLen)
		}
		out[k] = uint16(index)
		data >>= bitsPerIndex
		dataLength -= bitsPerIndex
	}
	return out, nil
}

// DecodeSpanningIndices 解码 1.16 之前的紧密排列：索引首尾相接，
// 跨越字边界时低位取自当前字、高位取自下一个字。
func DecodeSpanningIndices(paletteLen int, words []uint64, transform WordTransform) ([]uint16, error) {
	if paletteLen < 1 {
		return nil, fmt.Errorf("%w: 调色板为空", ErrMalformedSection)
	}
	bitsPerIndex := BitsPerIndex(paletteLen)
	need := SpanningWordsRequired(bitsPerIndex)
	if len(words) < need {
		return nil, fmt.Errorf("%w: 需要 %d 个存储字(位宽 %d，跨字排列)，实际 %d 个", ErrDecodeFault, need, bitsPerIndex, len(words))
	}

	data := words[:need]
	if transform != nil {
		data = make([]uint64, need)
		for i := range data {
			data[i] = transform(words[i])
		}
	}

	mask := uint64(1)<<bitsPerIndex - 1
	out := make([]uint16, SectionVolume)
	for k := 0; k < SectionVolume; k++ {
		bit := k * bitsPerIndex
		w, off := bit/64, bit%64
		v := data[w] >> off
		if off+bitsPerIndex > 64 {
			v |= data[w+1] << (64 - off)
		}
		index := v & mask
		if index >= uint64(paletteLen) {
			return nil, fmt.Errorf("%w: 第 %d 个方块索引 %d 超出调色板大小 %d", ErrDecodeFault, k, index, paletteLen)
		}
		out[k] = uint16(index)
	}
	return out, nil
}

// EncodeSpanningIndices DecodeSpanningIndices 的逆操作
func EncodeSpanningIndices(paletteLen int, indices []uint16) ([]uint64, error) {
	if len(indices) != SectionVolume {
		return nil, fmt.Errorf("需要 %d 个索引，实际 %d 个", SectionVolume, len(indices))
	}
	bitsPerIndex := BitsPerIndex(paletteLen)
	words := make([]uint64, SpanningWordsRequired(bitsPerIndex))
	for k, index := range indices {
		if int(index) >= paletteLen {
			return nil, fmt.Errorf("索引 %d 超出调色板大小 %d", index, paletteLen)
		}
		bit := k * bitsPerIndex
		w, off := bit/64, bit%64
		words[w] |= uint64(index) << off
		if off+bitsPerIndex > 64 {
			words[w+1] |= uint64(index) >> (64 - off)
		}
	}
	return words, nil
}

// EncodeIndices DecodeIndices 的逆操作，使用相同的位宽与填充规则
func EncodeIndices(paletteLen int, indices []uint16) ([]uint64, error) {
	if len(indices) != SectionVolume {
		return nil, fmt.Errorf("需要 %d 个索引，实际 %d 个", SectionVolume, len(indices))
	}
	bitsPerIndex := BitsPerIndex(paletteLen)
	perWord := 64 / bitsPerIndex
	words := make([]uint64, WordsRequired(bitsPerIndex))
	for k, index := range indices {
		if int(index) >= paletteLen {
			return nil, fmt.Errorf("索引 %d 超出调色板大小 %d", index, paletteLen)
		}
		shift := (k % perWord) * bitsPerIndex
		words[k/perWord] |= uint64(index) << shift
	}
	return words, nil
}

// CellOffset 第 k 个方块在子区块内的坐标
func CellOffset(k int) (x, y, z int) {
	return k & 0xF, k >> 8, (k >> 4) & 0xF
}
