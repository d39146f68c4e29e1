package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ngenohkevin/sysinfo-agent/internal/format"
	"github.com/ngenohkevin/sysinfo-agent/internal/system"
)

// TimeLayout is the timestamp format used in digests
const TimeLayout = "02/01/2006 - 15:04:05"

// Section selects a block group in the text digest
type Section string

const (
	SectionCPU    Section = "cpu"
	SectionMemory Section = "mem"
	SectionDisk   Section = "disk"
)

var sectionTitles = map[Section]string{
	SectionCPU:    "CPU usage",
	SectionMemory: "Memory usage",
	SectionDisk:   "Disk usage",
}

// Text renders a plain-text digest of the requested sections for instant
// messaging. Process data is never included.
func Text(snap *system.Snapshot, sections ...Section) string {
	blocks := []string{snap.TakenAt.Format(TimeLayout)}

	for _, section := range sections {
		var items []string
		switch section {
		case SectionCPU:
			items = cpuBlocks(snap.CPU)
		case SectionMemory:
			items = memoryBlocks(snap.Memory)
		case SectionDisk:
			items = diskBlocks(snap.Disks)
		default:
			continue
		}

		if len(items) == 0 {
			items = []string{"(none)"}
		}
		items[0] = sectionTitles[section] + "\n" + items[0]
		blocks = append(blocks, items...)
	}

	return strings.Join(blocks, "\n\n")
}

func cpuBlocks(cpus []system.CPUReading) []string {
	blocks := make([]string, 0, len(cpus))
	for _, c := range cpus {
		blocks = append(blocks, fmt.Sprintf("--- %s ---\nUser: %s\nSystem: %s\nIdle: %s",
			c.Key(), format.Percent(c.User), format.Percent(c.System), format.Percent(c.Idle)))
	}
	return blocks
}

func memoryBlocks(m system.Memory) []string {
	var blocks []string
	for _, entry := range m.Named() {
		blocks = append(blocks, fmt.Sprintf("--- %s ---\nTotal: %s\nFree: %s\nUsed: %s\nPercentage used: %s",
			entry.Key, format.Ubytes(entry.Total), format.Ubytes(entry.Free),
			format.Ubytes(entry.Used), format.Percent(entry.UsedPercent)))
	}
	return blocks
}

func diskBlocks(disks map[string]system.DiskReading) []string {
	blocks := make([]string, 0, len(disks))
	for _, d := range sortedDisks(disks) {
		blocks = append(blocks, fmt.Sprintf(
			"--- %s ---\nMount point: %s\nFilesystem type: %s\nOptions: %s\nTotal: %s\nUsed: %s\nFree: %s\nPercentage used: %s",
			d.Device, d.Mountpoint, d.Fstype, d.Opts,
			format.Ubytes(d.Usage.Total), format.Ubytes(d.Usage.Used),
			format.Ubytes(d.Usage.Free), format.Percent(d.Usage.UsedPercent)))
	}
	return blocks
}

func sortedDisks(disks map[string]system.DiskReading) []system.DiskReading {
	result := make([]system.DiskReading, 0, len(disks))
	for device, d := range disks {
		d.Device = device
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Device < result[j].Device
	})
	return result
}

func sortedProcesses(procs map[uint32]system.ProcessReading) []system.ProcessReading {
	result := make([]system.ProcessReading, 0, len(procs))
	for pid, p := range procs {
		p.PID = pid
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PID < result[j].PID
	})
	return result
}
