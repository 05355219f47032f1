package stats

import (
	"strconv"
	"strings"
)

// Record is a single line of output from the container runtime status report.
// The JSON keys match what "docker stats --format json" emits.
type Record struct {
	ID        string `json:"ID"`
	Container string `json:"Container"`
	Name      string `json:"Name"`
	CPUPerc   string `json:"CPUPerc"`
	MemPerc   string `json:"MemPerc"`
	MemUsage  string `json:"MemUsage"`
	BlockIO   string `json:"BlockIO"`
	NetIO     string `json:"NetIO"`
	PIDs      string `json:"PIDs"`
}

// Snapshot is the normalized form of a Record for one container at one poll.
type Snapshot struct {
	ID string `json:"id"`
	// The container-group label reported by the runtime.
	Container     string      `json:"container"`
	Name          string      `json:"name"`
	CPUPercent    float64     `json:"cpu_percent"`
	MemoryPercent float64     `json:"memory_percent"`
	MemoryUsage   Measurement `json:"memory_usage"`
	MemoryLimit   Measurement `json:"memory_limit"`
	BlockIO       IOPair      `json:"block_io"`
	NetIO         IOPair      `json:"net_io"`
	PIDs          uint32      `json:"pids"`
}

// Normalize converts a raw record into a Snapshot.
//
// A failure to parse the CPU percentage, memory percentage or process count is
// returned as the error and the record must be discarded. Failures on the I/O
// and memory usage fields only zero out the affected measurements; they are
// returned in the slice so the caller can report them, and the snapshot is
// still usable.
func Normalize(r Record) (Snapshot, []*FieldError, error) {
	s := Snapshot{ID: r.ID, Container: r.Container, Name: r.Name}

	var err error
	if s.CPUPercent, err = ParsePercent("CPUPerc", r.CPUPerc); err != nil {
		return Snapshot{}, nil, err
	}
	if s.MemoryPercent, err = ParsePercent("MemPerc", r.MemPerc); err != nil {
		return Snapshot{}, nil, err
	}
	pids, err := strconv.ParseUint(strings.TrimSpace(r.PIDs), 10, 32)
	if err != nil {
		return Snapshot{}, nil, newFieldError("PIDs", r.PIDs, err)
	}
	s.PIDs = uint32(pids)

	var soft []*FieldError
	if s.BlockIO, err = ParseIO("BlockIO", r.BlockIO); err != nil {
		soft = append(soft, err.(*FieldError))
	}
	if s.NetIO, err = ParseIO("NetIO", r.NetIO); err != nil {
		soft = append(soft, err.(*FieldError))
	}
	if s.MemoryUsage, s.MemoryLimit, err = ParseMemoryUsage("MemUsage", r.MemUsage); err != nil {
		soft = append(soft, err.(*FieldError))
	}

	return s, soft, nil
}
