package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	gopsprocess "github.com/shirou/gopsutil/v4/process"
)

// captureBufferBytes is the minimum stdout/stderr buffer capacity (§4.F:
// "large buffer, ≥ 50 MiB"). Preallocating avoids repeated reallocation
// when a noisy test runner dumps a large trace.
const captureBufferBytes = 50 * 1024 * 1024

// killGracePeriod is how long a child gets to exit after SIGTERM before
// the driver escalates to SIGKILL across its whole process tree.
const killGracePeriod = 5 * time.Second

// execOutcome is the raw result of running a child process, before the
// driver attaches language/framework/command metadata.
type execOutcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// execute runs argv to completion, capturing stdout/stderr. When verbose
// is true, the child is attached to a pty (via creack/pty) instead of
// plain pipes: most Jest/Vitest/RSpec-style runners only emit color
// codes when they detect a terminal, so a plain pipe silently degrades
// verbose output to plain text. The pty's master side is teed to the
// driver's own stdout while still being captured for parsing; the pty
// merges the child's stdout and stderr onto one stream, so stderrBuf
// stays empty in this mode. If ctx carries a deadline, the child is
// sent SIGTERM on expiry and SIGKILL (process-tree wide) after
// killGracePeriod if it hasn't exited.
func execute(ctx context.Context, argv []string, verbose bool) (execOutcome, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()

	stdoutBuf := bytes.NewBuffer(make([]byte, 0, captureBufferBytes))
	stderrBuf := bytes.NewBuffer(make([]byte, 0, captureBufferBytes))

	var ptmx *os.File
	var copyDone chan struct{}
	if verbose {
		// pty.Start sets its own Setsid/Setctty SysProcAttr fields, which
		// Linux refuses to combine with Setpgid, so it owns cmd.Start here.
		f, err := pty.Start(cmd)
		if err != nil {
			return execOutcome{}, err
		}
		ptmx = f
		copyDone = make(chan struct{})
		go func() {
			_, _ = io.Copy(io.MultiWriter(os.Stdout, stdoutBuf), ptmx)
			close(copyDone)
		}()
	} else {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmd.Stdout = stdoutBuf
		cmd.Stderr = stderrBuf
		if err := cmd.Start(); err != nil {
			return execOutcome{}, err
		}
	}
	if ptmx != nil {
		defer ptmx.Close()
	}

	// drain blocks, when verbose, until the pty copy goroutine has seen
	// EOF (the child exiting closes the pty's slave side), so stdoutBuf
	// is fully populated and no longer concurrently written before it is
	// read below.
	drain := func() {
		if copyDone != nil {
			<-copyDone
		}
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	var timedOut bool
	select {
	case err := <-waitErr:
		drain()
		exitCode := exitCodeOf(cmd, err)
		return execOutcome{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), ExitCode: exitCode}, nil
	case <-ctx.Done():
		timedOut = true
	}

	// Grace period: ask nicely with SIGTERM to the whole process group.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	select {
	case err := <-waitErr:
		drain()
		exitCode := exitCodeOf(cmd, err)
		return execOutcome{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), ExitCode: exitCode, TimedOut: timedOut}, nil
	case <-time.After(killGracePeriod):
	}

	killTree(cmd.Process.Pid)
	<-waitErr
	drain()
	return execOutcome{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), ExitCode: -1, TimedOut: timedOut}, nil
}

func exitCodeOf(cmd *exec.Cmd, waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(waitErr, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// killTree kills pid and every descendant process it can discover,
// falling back to the process group if the process-tree walk fails (the
// child may have already exited, or may have called setsid and escaped
// the group).
func killTree(pid int) {
	if proc, err := gopsprocess.NewProcess(int32(pid)); err == nil {
		if children, err := proc.Children(); err == nil {
			for _, child := range children {
				_ = child.Kill()
			}
		}
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
	_ = syscall.Kill(pid, syscall.SIGKILL)
}
