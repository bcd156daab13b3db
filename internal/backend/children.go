package backend

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// procEntry is one row of the process table.
type procEntry struct {
	PID     int
	PPID    int
	Command string
}

// listProcesses returns the full process table using POSIX ps flags.
// Works on macOS and Linux.
func listProcesses() ([]procEntry, error) {
	cmd := exec.Command("ps", "-eo", "pid=,ppid=,args=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ps failed: %w: %s", err, stderr.String())
	}

	var entries []procEntry
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		entries = append(entries, procEntry{
			PID:     pid,
			PPID:    ppid,
			Command: strings.Join(fields[2:], " "),
		})
	}
	return entries, nil
}

// descendants returns the PIDs of all descendants of root, breadth-first,
// so parents come before their children.
func descendants(root int, entries []procEntry) []int {
	children := make(map[int][]int, len(entries))
	for _, e := range entries {
		children[e.PPID] = append(children[e.PPID], e.PID)
	}

	var result []int
	queue := []int{root}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, child := range children[pid] {
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// countDescendants returns the number of descendant processes of pid.
func countDescendants(pid int) (int, error) {
	entries, err := listProcesses()
	if err != nil {
		return 0, err
	}
	return len(descendants(pid, entries)), nil
}

// killDescendants sends SIGKILL to every descendant of pid, leaving pid
// itself untouched. Returns the number of processes successfully signalled.
func killDescendants(pid int) (int, error) {
	entries, err := listProcesses()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, child := range descendants(pid, entries) {
		if err := syscall.Kill(child, syscall.SIGKILL); err == nil {
			count++
		}
	}
	return count, nil
}
