package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ProbeState tracks the liveness check through its lifecycle.
type ProbeState int

const (
	ProbeNotStarted ProbeState = iota
	ProbeStarting
	ProbeResponding
	ProbeTimedOut
	ProbeStopped
)

func (s ProbeState) String() string {
	switch s {
	case ProbeStarting:
		return "STARTING"
	case ProbeResponding:
		return "RESPONDING"
	case ProbeTimedOut:
		return "TIMED_OUT"
	case ProbeStopped:
		return "STOPPED"
	default:
		return "NOT_STARTED"
	}
}

// ProbeSpec describes one liveness check: what to launch, where it should
// answer, and how long to wait. Interval and Deadline are parameters rather
// than constants so callers can tighten them in tests or via .env.
type ProbeSpec struct {
	Command    string
	Args       []string
	WorkDir    string
	URL        string
	Interval   time.Duration
	Deadline   time.Duration
	StdoutPath string
	StderrPath string
	PidPath    string // optional; records the child PID while it runs
}

// ProbeResult reports the outcome of a liveness probe. The child process is
// terminated on every exit path; Pass only records whether the endpoint
// answered before the deadline.
type ProbeResult struct {
	Pass       bool
	State      ProbeState
	Elapsed    time.Duration
	StatusCode int
	StdoutTail string
	StderrTail string
}

// Probe launches the target application and polls its endpoint at a fixed
// interval until it answers or the deadline elapses. Any HTTP status from
// 200 through 499 counts as alive: the purpose is "did the server answer at
// all", not "is it healthy". The launched process is reclaimed
// unconditionally before Probe returns.
func Probe(ctx context.Context, spec ProbeSpec) (*ProbeResult, error) {
	log := WithStep("liveness")
	result := &ProbeResult{State: ProbeNotStarted}

	stdout, err := os.OpenFile(ExpandUserPath(spec.StdoutPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return result, fmt.Errorf("opening stdout capture: %w", err)
	}
	defer stdout.Close()
	stderr, err := os.OpenFile(ExpandUserPath(spec.StderrPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return result, fmt.Errorf("opening stderr capture: %w", err)
	}
	defer stderr.Close()

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = ExpandUserPath(spec.WorkDir)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	ConfigureSysProcAttr(cmd)

	result.State = ProbeStarting
	start := time.Now()
	if err := cmd.Start(); err != nil {
		// Not a timeout: the application never got a chance to answer.
		result.State = ProbeStopped
		return result, WrapKind(ErrPrerequisiteMissing, err, "launching target application")
	}
	log.Info().Int("pid", cmd.Process.Pid).Str("url", spec.URL).Msg("child launched, polling")
	if spec.PidPath != "" {
		if err := WritePID(cmd.Process.Pid, spec.PidPath); err != nil {
			log.Warn().Err(err).Msg("could not record child pid")
		}
	}

	// The probe verifies readiness, it does not serve: the child dies on
	// every exit path, pass or fail.
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if spec.PidPath != "" {
			CleanupPIDFile(spec.PidPath)
		}
		result.State = ProbeStopped
		log.Info().Bool("pass", result.Pass).Dur("elapsed", result.Elapsed).Msg("child terminated")
	}()

	interval := spec.Interval
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	deadline := spec.Deadline
	if deadline <= 0 {
		deadline = DefaultProbeDeadline
	}

	client := &http.Client{Timeout: interval}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	timeout := time.NewTimer(deadline)
	defer timeout.Stop()

	for {
		if code, ok := pollOnce(ctx, client, spec.URL); ok {
			result.State = ProbeResponding
			result.Pass = true
			result.StatusCode = code
			result.Elapsed = time.Since(start)
			return result, nil
		}
		select {
		case <-ctx.Done():
			result.State = ProbeTimedOut
			result.Elapsed = time.Since(start)
			result.StdoutTail = TailFile(spec.StdoutPath, 20)
			result.StderrTail = TailFile(spec.StderrPath, 20)
			return result, WrapKind(ErrLivenessTimeout, ctx.Err(), "probe cancelled")
		case <-timeout.C:
			result.State = ProbeTimedOut
			result.Elapsed = time.Since(start)
			result.StdoutTail = TailFile(spec.StdoutPath, 20)
			result.StderrTail = TailFile(spec.StderrPath, 20)
			return result, WrapKind(ErrLivenessTimeout, nil,
				fmt.Sprintf("%s did not answer within %s", spec.URL, deadline))
		case <-ticker.C:
		}
	}
}

func pollOnce(ctx context.Context, client *http.Client, url string) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode <= 499 {
		return resp.StatusCode, true
	}
	return resp.StatusCode, false
}

// TailFile returns the last n lines of a capture file, best effort.
func TailFile(path string, n int) string {
	data, err := os.ReadFile(ExpandUserPath(path))
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
