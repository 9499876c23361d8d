package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSection 子区块缺少调色板或数据字段
	ErrMalformedSection = errors.New("子区块数据格式错误")
	// ErrMalformedChunk 区块数据无法读取或前后矛盾
	ErrMalformedChunk = errors.New("区块数据格式错误")
	// ErrDecodeFault 存储字数量不足或索引越界
	ErrDecodeFault = errors.New("方块索引解码失败")
	// ErrRegionRead 区域文件无法读取
	ErrRegionRead = errors.New("区域文件读取失败")
)

// SectionError 带区块/子区块坐标的解码错误
type SectionError struct {
	ChunkX, ChunkZ int
	SectionY       int8
	Err            error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("区块(%d,%d) 子区块 Y=%d: %v", e.ChunkX, e.ChunkZ, e.SectionY, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// ChunkError 区域内某个区块槽位的错误
type ChunkError struct {
	GridX, GridZ int
	Err          error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("区块槽位(%d,%d): %v", e.GridX, e.GridZ, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// RegionError 整个区域文件的错误
type RegionError struct {
	Path string
	Err  error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("区域 %s: %v", e.Path, e.Err)
}

func (e *RegionError) Unwrap() error { return e.Err }
