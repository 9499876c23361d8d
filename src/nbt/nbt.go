package nbt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"
)

// TagType 表示NBT标签类型
type TagType byte

const (
	TagEnd       TagType = 0x00
	TagByte      TagType = 0x01
	TagShort     TagType = 0x02
	TagInt       TagType = 0x03
	TagLong      TagType = 0x04
	TagFloat     TagType = 0x05
	TagDouble    TagType = 0x06
	TagByteArray TagType = 0x07
	TagString    TagType = 0x08
	TagList      TagType = 0x09
	TagCompound  TagType = 0x0a
	TagIntArray  TagType = 0x0b
	TagLongArray TagType = 0x0c
)

func (t TagType) String() string {
	switch t {
	case TagEnd:
		return "TAG_End"
	case TagByte:
		return "TAG_Byte"
	case TagShort:
		return "TAG_Short"
	case TagInt:
		return "TAG_Int"
	case TagLong:
		return "TAG_Long"
	case TagFloat:
		return "TAG_Float"
	case TagDouble:
		return "TAG_Double"
	case TagByteArray:
		return "TAG_Byte_Array"
	case TagString:
		return "TAG_String"
	case TagList:
		return "TAG_List"
	case TagCompound:
		return "TAG_Compound"
	case TagIntArray:
		return "TAG_Int_Array"
	case TagLongArray:
		return "TAG_Long_Array"
	default:
		return fmt.Sprintf("TAG_Unknown(%d)", byte(t))
	}
}

// TypeOf 获取值对应的标签类型
func TypeOf(value any) TagType {
	switch value.(type) {
	case int8:
		return TagByte
	case int16:
		return TagShort
	case int32:
		return TagInt
	case int64:
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case []byte:
		return TagByteArray
	case string:
		return TagString
	case *List:
		return TagList
	case *Compound:
		return TagCompound
	case []int32:
		return TagIntArray
	case []int64:
		return TagLongArray
	default:
		return TagEnd
	}
}

// WriteString 写入NBT字符串
func WriteString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string too long")
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// Write 写入未压缩的根复合标签
func Write(w io.Writer, name string, root *Compound) error {
	bw := bufio.NewWriter(w)
	if err := WriteTag(bw, name, root); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteGzip 将NBT数据写入gzip压缩流
func WriteGzip(w io.Writer, name string, root *Compound) error {
	gzWriter, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	if err != nil {
		return err
	}
	if err := Write(gzWriter, name, root); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

// WriteTag 写入带名称的NBT标签
func WriteTag(w io.Writer, name string, value any) error {
	tagType := TypeOf(value)
	if tagType == TagEnd {
		return fmt.Errorf("unsupported type: %T", value)
	}
	if _, err := w.Write([]byte{byte(tagType)}); err != nil {
		return err
	}
	if err := WriteString(w, name); err != nil {
		return err
	}
	return WriteTagValue(w, tagType, value)
}

// WriteTagValue 写入标签值（不含类型与名称）
func WriteTagValue(w io.Writer, tagType TagType, value any) error {
	if TypeOf(value) != tagType {
		return fmt.Errorf("value %T does not match %s", value, tagType)
	}
	switch v := value.(type) {
	case int8, int16, int32, int64, float32, float64:
		return binary.Write(w, binary.BigEndian, v)
	case []byte:
		if err := binary.Write(w, binary.BigEndian, int32(len(v))); err != nil {
			return err
		}
		_, err := w.Write(v)
		return err
	case string:
		return WriteString(w, v)
	case []int32:
		if err := binary.Write(w, binary.BigEndian, int32(len(v))); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v)
	case []int64:
		if err := binary.Write(w, binary.BigEndian, int32(len(v))); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v)
	case *List:
		if v == nil {
			v = &List{}
		}
		elem := v.Elem
		if elem == TagEnd && len(v.Items) > 0 {
			return fmt.Errorf("list of TAG_End with %d items", len(v.Items))
		}
		if _, err := w.Write([]byte{byte(elem)}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, int32(len(v.Items))); err != nil {
			return err
		}
		for i, item := range v.Items {
			if err := WriteTagValue(w, elem, item); err != nil {
				return fmt.Errorf("list item %d: %w", i, err)
			}
		}
		return nil
	case *Compound:
		if v == nil {
			_, err := w.Write([]byte{byte(TagEnd)})
			return err
		}
		for _, key := range v.keys {
			if err := WriteTag(w, key, v.values[key]); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		_, err := w.Write([]byte{byte(TagEnd)})
		return err
	default:
		return fmt.Errorf("unsupported tag type: %d", tagType)
	}
}
