//go:build windows

package debug

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// memCounters is PROCESS_MEMORY_COUNTERS; only the working set fields are
// read, the rest keep the layout.
type memCounters struct {
	size       uint32
	_          uint32
	peakWS     uintptr
	ws         uintptr
	_, _, _, _ uintptr
	_, _       uintptr
}

var getProcessMemoryInfo = windows.NewLazySystemDLL("psapi.dll").NewProc("GetProcessMemoryInfo")

// workingSet returns the current and peak working set of this process.
func workingSet() (cur, peak uint64, err error) {
	var mc memCounters
	mc.size = uint32(unsafe.Sizeof(mc))
	ok, _, callErr := getProcessMemoryInfo.Call(uintptr(windows.CurrentProcess()), uintptr(unsafe.Pointer(&mc)), uintptr(mc.size))
	if ok == 0 {
		return 0, 0, fmt.Errorf("GetProcessMemoryInfo: %w", callErr)
	}
	return uint64(mc.ws), uint64(mc.peakWS), nil
}
