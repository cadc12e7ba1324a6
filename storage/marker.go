package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

const runningMarker = "running.json"

// RunInfo is written to the running marker while the editor is open.
type RunInfo struct {
	PID      int32     `json:"pid"`
	Started  time.Time `json:"started"`
	Hostname string    `json:"hostname,omitempty"`
	Platform string    `json:"platform,omitempty"`
	Version  string    `json:"version,omitempty"`
}

// MarkRunning writes the running marker for this process. It is removed
// by ClearRunning on a clean exit, so finding it on start means a crash.
func MarkRunning(version string) error {
	info := RunInfo{PID: int32(os.Getpid()), Started: time.Now(), Version: version}
	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.Platform = h.Platform + " " + h.PlatformVersion
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return WriteDataFile(runningMarker, data, 0o644)
}

// ClearRunning removes the running marker.
func ClearRunning() error {
	return RemoveDataFile(runningMarker)
}

// CheckPreviousCrash reports whether the last session ended without
// removing its marker. A marker whose process is still alive belongs to
// another running editor and is not a crash.
func CheckPreviousCrash() (bool, *RunInfo, error) {
	data, err := ReadDataFile(runningMarker)
	if os.IsNotExist(err) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	var info RunInfo
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("[STORAGE] unreadable %s, assuming a crash: %v", runningMarker, err)
		return true, nil, nil
	}
	if info.PID == int32(os.Getpid()) {
		return false, &info, nil
	}
	alive, err := process.PidExists(info.PID)
	if err != nil {
		return false, &info, fmt.Errorf("check pid %d: %w", info.PID, err)
	}
	return !alive, &info, nil
}
