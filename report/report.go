// Package report 以 zstd 压缩的 JSONL 形式记录每个区域的处理结果。
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"regionstruct/batch"
)

// Record 一个区域的报告行
type Record struct {
	Region        string   `json:"region"`
	Structures    int      `json:"structures"`
	Chunks        int      `json:"chunks"`
	SkippedChunks int      `json:"skipped_chunks"`
	Voxels        int      `json:"voxels"`
	DataVersion   int32    `json:"data_version"`
	ElapsedMS     int64    `json:"elapsed_ms"`
	Error         string   `json:"error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// FromOutcome 把区域结果转换为报告行
func FromOutcome(o *batch.Outcome) Record {
	r := Record{
		Region:     o.Name,
		Structures: len(o.Files),
		ElapsedMS:  o.Elapsed.Milliseconds(),
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	if res := o.Result; res != nil {
		r.Chunks = res.ChunksRead
		r.SkippedChunks = res.ChunksSkipped
		r.Voxels = res.Voxels
		r.DataVersion = res.DataVersion
		for _, e := range res.Errors {
			r.Warnings = append(r.Warnings, e.Error())
		}
	}
	for _, e := range o.HookErrors {
		r.Warnings = append(r.Warnings, e.Error())
	}
	return r
}

// Writer 追加写入报告文件，可并发使用
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter 在 dir 下创建 report-<时间戳>.jsonl.zst
func NewWriter(dir string, now time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("report-%s.jsonl.zst", now.UTC().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Path 报告文件路径
func (w *Writer) Path() string { return w.path }

// Write 写入一行
func (w *Writer) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("report writer closed")
	}

	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// AfterRegion 实现 batch.Hook
func (w *Writer) AfterRegion(o *batch.Outcome) error {
	return w.Write(FromOutcome(o))
}

// Close 刷新并关闭文件
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	_ = w.w.Flush()
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w, w.enc, w.f = nil, nil, nil
	return err
}

// ReadAll 解码整个报告文件
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, sc.Err()
}
