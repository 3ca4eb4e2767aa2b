package toolrun_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"deqpkit/internal/toolrun"
)

func fake(args ...string) toolrun.Command {
	return toolrun.Command{
		Name: os.Args[0],
		Args: args,
		Env:  []string{fakeToolEnv + "=1"},
	}
}

func TestCommandStreamMergesStderr(t *testing.T) {
	cmd := fake("summary", "0", "1")
	cmd.MergeStderr = true
	var out bytes.Buffer
	if err := cmd.Stream(context.Background(), &out, nil); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got := out.String()
	for _, want := range []string{"compiling...", "WARNING - something", "0 error(s), 1 warning(s)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output %q missing %q", got, want)
		}
	}
}

func TestCommandStreamSeparatesStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := fake("summary", "0", "0").Stream(context.Background(), &out, &errOut); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if strings.Contains(out.String(), "WARNING") {
		t.Fatalf("stdout should not carry stderr: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "WARNING") {
		t.Fatalf("stderr = %q, want warning line", errOut.String())
	}
}

func TestCommandExitStatus(t *testing.T) {
	var out bytes.Buffer
	err := fake("summary", "2", "0").Stream(context.Background(), &out, nil)
	var exitErr *toolrun.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Fatalf("exit code = %d, want 1", exitErr.Code)
	}
}

func TestCommandLaunchFailure(t *testing.T) {
	cmd := toolrun.Command{Name: "/nonexistent/closure-compiler"}
	err := cmd.Stream(context.Background(), &bytes.Buffer{}, nil)
	var launchErr *toolrun.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("err = %v, want *LaunchError", err)
	}
}

func TestCommandTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := fake("sleep").Stream(ctx, &bytes.Buffer{}, nil)
	if !errors.Is(err, toolrun.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestCommandOutput(t *testing.T) {
	out, err := fake("silent").Output(context.Background())
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "no tally here" {
		t.Fatalf("Output = %q, want %q", got, "no tally here")
	}
}

func TestCommandDescribe(t *testing.T) {
	tests := []struct {
		cmd  toolrun.Command
		want string
	}{
		{toolrun.Command{Name: "java"}, "java"},
		{toolrun.Command{Name: "java", Args: []string{"-jar", "compiler.jar"}}, "java -jar compiler.jar"},
		{toolrun.Command{Name: "python", Args: []string{"deps writer.py", ""}}, `python "deps writer.py" ""`},
	}
	for _, tt := range tests {
		if got := tt.cmd.Describe(); got != tt.want {
			t.Fatalf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandTimeoutKillsDescendants(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	var out bytes.Buffer
	err := fake("spawn").Stream(ctx, &out, nil)
	if !errors.Is(err, toolrun.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("timeout took %v", elapsed)
	}
}

func TestCommandReturnsWhenDescendantKeepsOutput(t *testing.T) {
	start := time.Now()
	var out bytes.Buffer
	if err := fake("spawn", "exit").Stream(context.Background(), &out, nil); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Stream blocked for %v", elapsed)
	}
	if !strings.Contains(out.String(), "started") {
		t.Fatalf("output = %q", out.String())
	}
}
