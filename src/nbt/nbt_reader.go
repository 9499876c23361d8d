package nbt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// 单个数组/列表允许的最大元素数，防止损坏数据触发超大分配
const maxElements = 1 << 26

// ReadGzip 从gzip压缩流中读取NBT数据
func ReadGzip(r io.Reader) (string, *Compound, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return "", nil, err
	}
	defer gzReader.Close()
	return Read(gzReader)
}

// ReadZlib 从zlib压缩流中读取NBT数据
func ReadZlib(r io.Reader) (string, *Compound, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return "", nil, err
	}
	defer zr.Close()
	return Read(zr)
}

// Read 读取未压缩的根复合标签，返回根标签名称
func Read(r io.Reader) (string, *Compound, error) {
	br := bufio.NewReader(r)

	tagType, err := br.ReadByte()
	if err != nil {
		return "", nil, err
	}
	if TagType(tagType) != TagCompound {
		return "", nil, fmt.Errorf("expected compound tag, got %s", TagType(tagType))
	}

	name, err := readString(br)
	if err != nil {
		return "", nil, err
	}

	root, err := readCompoundValue(br, 0)
	if err != nil {
		return "", nil, err
	}
	return name, root, nil
}

func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readLength(r io.Reader) (int, error) {
	var length int32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, fmt.Errorf("negative length: %d", length)
	}
	if length > maxElements {
		return 0, fmt.Errorf("length too large: %d", length)
	}
	return int(length), nil
}

// readCompoundValue 读取复合标签的值
func readCompoundValue(r io.Reader, depth int) (*Compound, error) {
	if depth > 512 {
		return nil, fmt.Errorf("nesting too deep")
	}
	compound := NewCompound()

	for {
		var tagType byte
		if err := binary.Read(r, binary.BigEndian, &tagType); err != nil {
			return nil, err
		}
		if TagType(tagType) == TagEnd {
			break
		}

		name, err := readString(r)
		if err != nil {
			return nil, err
		}

		value, err := readTagValue(r, TagType(tagType), depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		compound.Set(name, value)
	}

	return compound, nil
}

// readTagValue 读取标签值
func readTagValue(r io.Reader, tagType TagType, depth int) (any, error) {
	switch tagType {
	case TagByte:
		var value int8
		err := binary.Read(r, binary.BigEndian, &value)
		return value, err
	case TagShort:
		var value int16
		err := binary.Read(r, binary.BigEndian, &value)
		return value, err
	case TagInt:
		var value int32
		err := binary.Read(r, binary.BigEndian, &value)
		return value, err
	case TagLong:
		// 读取两个int32作为int64
		var high, low int32
		if err := binary.Read(r, binary.BigEndian, &high); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &low); err != nil {
			return nil, err
		}
		return (int64(high) << 32) | int64(uint32(low)), nil
	case TagFloat:
		var value float32
		err := binary.Read(r, binary.BigEndian, &value)
		return value, err
	case TagDouble:
		var value float64
		err := binary.Read(r, binary.BigEndian, &value)
		return value, err
	case TagByteArray:
		length, err := readLength(r)
		if err != nil {
			return nil, err
		}
		array := make([]byte, length)
		_, err = io.ReadFull(r, array)
		return array, err
	case TagString:
		return readString(r)
	case TagList:
		return readListValue(r, depth)
	case TagCompound:
		return readCompoundValue(r, depth)
	case TagIntArray:
		length, err := readLength(r)
		if err != nil {
			return nil, err
		}
		array := make([]int32, length)
		if err := binary.Read(r, binary.BigEndian, array); err != nil {
			return nil, err
		}
		return array, nil
	case TagLongArray:
		length, err := readLength(r)
		if err != nil {
			return nil, err
		}
		array := make([]int64, length)
		if err := binary.Read(r, binary.BigEndian, array); err != nil {
			return nil, err
		}
		return array, nil
	default:
		return nil, fmt.Errorf("unsupported tag type: %d", tagType)
	}
}

// readListValue 读取列表值
func readListValue(r io.Reader, depth int) (*List, error) {
	var elemType byte
	if err := binary.Read(r, binary.BigEndian, &elemType); err != nil {
		return nil, err
	}

	length, err := readLength(r)
	if err != nil {
		return nil, err
	}
	if TagType(elemType) == TagEnd && length > 0 {
		return nil, fmt.Errorf("list of TAG_End with %d items", length)
	}

	list := &List{Elem: TagType(elemType), Items: make([]any, length)}
	for i := 0; i < length; i++ {
		value, err := readTagValue(r, TagType(elemType), depth+1)
		if err != nil {
			return nil, err
		}
		list.Items[i] = value
	}
	return list, nil
}
