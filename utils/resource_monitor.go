package utils

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ResourceMonitor 资源监控器，记录提取期间的堆内存与协程数峰值
type ResourceMonitor struct {
	interval time.Duration

	mu            sync.Mutex
	stop          chan struct{}
	peakHeap      uint64
	peakGoroutine int
	started       time.Time
}

// NewResourceMonitor 创建新的资源监控器
func NewResourceMonitor() *ResourceMonitor {
	return &ResourceMonitor{interval: 500 * time.Millisecond}
}

// Start 启动资源监控，重复调用无效
func (rm *ResourceMonitor) Start() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.stop != nil {
		return
	}
	rm.stop = make(chan struct{})
	rm.started = time.Now()
	go rm.loop(rm.stop)
}

// Stop 停止资源监控
func (rm *ResourceMonitor) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.stop != nil {
		close(rm.stop)
		rm.stop = nil
	}
}

func (rm *ResourceMonitor) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()
	for {
		rm.sample()
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (rm *ResourceMonitor) sample() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	n := runtime.NumGoroutine()

	rm.mu.Lock()
	rm.peakHeap = max(rm.peakHeap, m.HeapAlloc)
	rm.peakGoroutine = max(rm.peakGoroutine, n)
	rm.mu.Unlock()
}

// Peak 返回观察到的堆内存（字节）与协程数峰值
func (rm *ResourceMonitor) Peak() (heap uint64, goroutines int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.peakHeap, rm.peakGoroutine
}

// ShowMaxResourceUsage 停止监控并展示峰值
func (rm *ResourceMonitor) ShowMaxResourceUsage() {
	rm.Stop()
	rm.sample()
	heap, goroutines := rm.Peak()

	fmt.Println()
	fmt.Println("==================================================")
	fmt.Println("📊 程序运行资源统计")
	fmt.Println("==================================================")
	fmt.Printf("最高堆内存占用: %s\n", humanize.IBytes(heap))
	fmt.Printf("最多协程数: %d\n", goroutines)
	if !rm.started.IsZero() {
		fmt.Printf("监控时长: %s\n", time.Since(rm.started).Round(time.Millisecond))
	}
	fmt.Println("==================================================")
}
