package anvil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/Tnze/go-mc/save/region"

	"regionstruct/extract"
	"regionstruct/src/nbt"
)

// 区块数据压缩方式（扇区第一个字节）
const (
	CompressionGzip = 1
	CompressionZlib = 2
	CompressionNone = 3
	CompressionLZ4  = 4
	// 最高位表示数据存放在外部 .mcc 文件中
	externalFlag = 0x80
)

var regionNamePattern = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseRegionName 从 r.X.Z.mca 解析区域坐标
func ParseRegionName(name string) (x, z int, ok bool) {
	m := regionNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(m[1])
	z, errZ := strconv.Atoi(m[2])
	if errX != nil || errZ != nil {
		return 0, 0, false
	}
	return x, z, true
}

// Options 区域读取选项
type Options struct {
	// SwapWordHalves 解码前对存储字做高低半字重组，与原读取器保持一致
	SwapWordHalves bool
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{SwapWordHalves: true}
}

// Region 一个打开的 .mca 区域文件，实现 extract.ChunkSource
type Region struct {
	path   string
	x, z   int
	hasPos bool
	file   *region.Region
	opts   Options
}

// Open 打开区域文件
func Open(path string, opts Options) (*Region, error) {
	f, err := region.Open(path)
	if err != nil {
		return nil, &extract.RegionError{Path: path, Err: fmt.Errorf("%w: %v", extract.ErrRegionRead, err)}
	}
	r := &Region{path: path, file: f, opts: opts}
	r.x, r.z, r.hasPos = ParseRegionName(path)
	return r, nil
}

// Path 区域文件路径
func (r *Region) Path() string { return r.path }

// Close 关闭区域文件
func (r *Region) Close() error {
	return r.file.Close()
}

// Chunk 读取并解析一个区块槽位，空槽位返回 nil, nil
func (r *Region) Chunk(gridX, gridZ int) (*extract.Chunk, error) {
	if gridX < 0 || gridX >= extract.RegionSize || gridZ < 0 || gridZ >= extract.RegionSize {
		return nil, fmt.Errorf("%w: 槽位(%d,%d)越界", extract.ErrMalformedChunk, gridX, gridZ)
	}
	if !r.file.ExistSector(gridX, gridZ) {
		return nil, nil
	}
	data, err := r.file.ReadSector(gridX, gridZ)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取扇区失败: %v", extract.ErrMalformedChunk, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	root, err := r.decodePayload(gridX, gridZ, data)
	if err != nil {
		return nil, err
	}

	c, err := ChunkFromNBT(root, r.opts)
	if err != nil {
		return nil, err
	}
	if r.hasPos {
		wantX := (r.x*extract.RegionSize + gridX) * extract.SectionSize
		wantZ := (r.z*extract.RegionSize + gridZ) * extract.SectionSize
		if c.X != wantX || c.Z != wantZ {
			return nil, fmt.Errorf("%w: 区块坐标(%d,%d)与槽位不符，期望(%d,%d)", extract.ErrMalformedChunk, c.X, c.Z, wantX, wantZ)
		}
	}
	return c, nil
}

func (r *Region) decodePayload(gridX, gridZ int, data []byte) (*nbt.Compound, error) {
	scheme := data[0]
	payload := data[1:]

	if scheme&externalFlag != 0 {
		if !r.hasPos {
			return nil, fmt.Errorf("%w: 外部区块数据需要区域坐标", extract.ErrMalformedChunk)
		}
		name := fmt.Sprintf("c.%d.%d.mcc", r.x*extract.RegionSize+gridX, r.z*extract.RegionSize+gridZ)
		external, err := os.ReadFile(filepath.Join(filepath.Dir(r.path), name))
		if err != nil {
			return nil, fmt.Errorf("%w: 读取外部区块文件失败: %v", extract.ErrMalformedChunk, err)
		}
		scheme &^= externalFlag
		payload = external
	}

	root, err := decodeChunkNBT(scheme, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrMalformedChunk, err)
	}
	return root, nil
}

func decodeChunkNBT(scheme byte, payload []byte) (*nbt.Compound, error) {
	var (
		root *nbt.Compound
		err  error
	)
	switch scheme {
	case CompressionGzip:
		_, root, err = nbt.ReadGzip(bytes.NewReader(payload))
	case CompressionZlib:
		_, root, err = nbt.ReadZlib(bytes.NewReader(payload))
	case CompressionNone:
		_, root, err = nbt.Read(bytes.NewReader(payload))
	case CompressionLZ4:
		var raw []byte
		raw, err = decodeLZ4Block(payload)
		if err == nil {
			_, root, err = nbt.Read(bytes.NewReader(raw))
		}
	default:
		return nil, fmt.Errorf("未知的压缩方式 %d", scheme)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("区块数据被截断: %w", err)
	}
	return root, err
}
