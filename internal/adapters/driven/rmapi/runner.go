package rmapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// ConfigEnv is the variable rmapi reads its configuration path from.
const ConfigEnv = "RMAPI_CONFIG"

// noisePrefixes are benign rmapi stderr lines.
var noisePrefixes = []string{
	"Refreshing tree...",
	"WARNING!!!",
	"  Using the new 1.5 sync",
	"  Make sure you have a backup",
}

// Stage is one process of a pipeline.
type Stage struct {
	Program string
	Args    []string
}

// Command builds a Stage.
func Command(program string, args ...string) Stage {
	return Stage{Program: program, Args: args}
}

func (s Stage) String() string {
	return strings.Join(append([]string{s.Program}, s.Args...), " ")
}

// Runner executes process pipelines with the current session's client
// configuration.
type Runner struct {
	sessions   driven.SessionProvider
	configPath string
}

// NewRunner creates a runner. Processes get RMAPI_CONFIG pointing at the
// current session's config file, or at configPath while no session exists.
// sessions may be nil.
func NewRunner(sessions driven.SessionProvider, configPath string) *Runner {
	return &Runner{sessions: sessions, configPath: configPath}
}

// Run executes stages as a pipeline in the current directory.
func (r *Runner) Run(ctx context.Context, stages ...Stage) ([]string, error) {
	return r.RunIn(ctx, "", stages...)
}

// RunIn executes stages as a pipeline, stage i's stdout feeding stage
// i+1's stdin, with dir as working directory. It waits for every stage
// and returns the last stage's stdout lines. Noise is dropped from the
// last stage's stderr and the remaining lines are logged as errors.
func (r *Runner) RunIn(ctx context.Context, dir string, stages ...Stage) ([]string, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: empty pipeline", domain.ErrInvalidInput)
	}

	env := r.environ()
	cmds := make([]*exec.Cmd, len(stages))
	stderrs := make([]bytes.Buffer, len(stages))
	for i, stage := range stages {
		logger.Debug("Executing command: %s", stage)
		cmd := exec.CommandContext(ctx, stage.Program, stage.Args...)
		cmd.Env = env
		cmd.Dir = dir
		cmd.Stderr = &stderrs[i]
		cmds[i] = cmd
	}

	// Parent copies of the pipe ends are closed once every child has
	// started, so that EOF propagates down the chain.
	var parentEnds []*os.File
	closeParentEnds := func() {
		for _, f := range parentEnds {
			_ = f.Close()
		}
		parentEnds = nil
	}
	for i := 0; i < len(cmds)-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			closeParentEnds()
			return nil, fmt.Errorf("%w: create pipe: %w", domain.ErrProcessFailure, err)
		}
		cmds[i].Stdout = pw
		cmds[i+1].Stdin = pr
		parentEnds = append(parentEnds, pr, pw)
	}

	var stdout bytes.Buffer
	last := len(cmds) - 1
	cmds[last].Stdout = &stdout

	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			closeParentEnds()
			for _, started := range cmds[:i] {
				_ = started.Process.Kill()
				_ = started.Wait()
			}
			return nil, &ProcessError{Stage: stages[i].String(), ExitCode: -1, Err: err}
		}
	}
	closeParentEnds()

	var firstErr error
	for i, cmd := range cmds {
		err := cmd.Wait()
		if err == nil || firstErr != nil {
			continue
		}
		lines := splitLines(stderrs[i].String())
		if i == last {
			lines = filterNoise(lines)
		}
		firstErr = &ProcessError{Stage: stages[i].String(), ExitCode: exitCode(err), Stderr: lines, Err: err}
	}

	for _, line := range filterNoise(splitLines(stderrs[last].String())) {
		logger.Error("%s", line)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	lines := splitLines(stdout.String())
	for _, line := range lines {
		logger.Debug("%s", line)
	}
	return lines, nil
}

// RunJSON runs stages and decodes their output into v, starting at the
// first '{'. Anything printed before it is ignored.
func (r *Runner) RunJSON(ctx context.Context, v any, stages ...Stage) error {
	lines, err := r.Run(ctx, stages...)
	if err != nil {
		return err
	}
	text := strings.Join(lines, "\n")
	start := strings.Index(text, "{")
	if start < 0 {
		return fmt.Errorf("%w: no JSON object in output of %s", domain.ErrProcessFailure, stages[0])
	}
	if err := json.Unmarshal([]byte(text[start:]), v); err != nil {
		return fmt.Errorf("%w: parse output of %s: %w", domain.ErrProcessFailure, stages[0], err)
	}
	return nil
}

// RunInteractive runs a single stage attached to the terminal, with the
// primary config file. Used for device pairing.
func (r *Runner) RunInteractive(ctx context.Context, stage Stage) error {
	logger.Debug("Executing command: %s", stage)
	cmd := exec.CommandContext(ctx, stage.Program, stage.Args...)
	cmd.Env = append(os.Environ(), ConfigEnv+"="+r.configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return &ProcessError{Stage: stage.String(), ExitCode: exitCode(err), Err: err}
	}
	return nil
}

func (r *Runner) environ() []string {
	path := r.configPath
	if r.sessions != nil {
		if s := r.sessions.Current(); s != nil && s.ConfigPath != "" {
			path = s.ConfigPath
		}
	}
	return append(os.Environ(), ConfigEnv+"="+path)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func splitLines(s string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func filterNoise(lines []string) []string {
	var kept []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || isNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

func isNoise(line string) bool {
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
