package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/linuxautomation/autokit/pkg/cleanup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v2"
)

func writeFile(t *testing.T, path string, size int, age time.Duration) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	if age > 0 {
		mtime := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const day = 24 * time.Hour

func TestOrganize(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 1, 0)
	writeFile(t, filepath.Join(dir, "b.jpg"), 1, 0)
	writeFile(t, filepath.Join(dir, "LICENSE"), 1, 0)

	runCommand(t, "organize", "--path", dir)

	assert.Zero(t, exitMocks.fatalCalls())
	assert.True(t, exists(filepath.Join(dir, "txt", "a.txt")))
	assert.True(t, exists(filepath.Join(dir, "jpg", "b.jpg")))
	assert.True(t, exists(filepath.Join(dir, "no_extension", "LICENSE")))
	assert.Contains(t, out.String(), "Moved b.jpg to jpg/")
	assert.Contains(t, out.String(), "Organized 3 file(s), 0 error(s)")
}

func TestOrganizeMissingPath(t *testing.T) {
	setupTests(t)
	runCommand(t, "organize", "--path", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, []int{int(unix.ENOENT)}, exitMocks.exitStatuses)
}

func TestRequiredFlag(t *testing.T) {
	setupTests(t)
	rootCmd.SetArgs([]string{"--log-level", "none", "organize"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"path" not set`)
}

func TestCleanOld(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.log"), 100, 40*day)
	writeFile(t, filepath.Join(dir, "nested", "older.log"), 50, 90*day)
	writeFile(t, filepath.Join(dir, "fresh.log"), 10, time.Hour)

	runCommand(t, "clean", "old", "--path", dir, "--days", "30", "--output", "json")
	require.Zero(t, exitMocks.fatalCalls())

	var res struct {
		Deleted    int   `json:"deleted"`
		Errors     int   `json:"errors"`
		FreedBytes int64 `json:"freedBytes"`
	}
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, int64(150), res.FreedBytes)
	assert.False(t, exists(filepath.Join(dir, "old.log")))
	assert.False(t, exists(filepath.Join(dir, "nested", "older.log")))
	assert.True(t, exists(filepath.Join(dir, "fresh.log")))
}

func TestCleanOldDryRun(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.log"), 100, 40*day)

	runCommand(t, "clean", "old", "--path", dir, "--dry-run")
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "Deleted old.log")
	assert.Contains(t, out.String(), "(dry run)")
	assert.True(t, exists(filepath.Join(dir, "old.log")))
}

func TestCleanOldExclude(t *testing.T) {
	setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.log"), 1, 40*day)
	writeFile(t, filepath.Join(dir, "old.keep"), 1, 40*day)
	writeFile(t, filepath.Join(dir, "cache", "old.bin"), 1, 40*day)

	runCommand(t, "clean", "old", "--path", dir, "--exclude", "*.keep", "-x", "cache/**")
	require.Zero(t, exitMocks.fatalCalls())
	assert.False(t, exists(filepath.Join(dir, "old.log")))
	assert.True(t, exists(filepath.Join(dir, "old.keep")))
	assert.True(t, exists(filepath.Join(dir, "cache", "old.bin")))
}

func TestInvalidExclude(t *testing.T) {
	setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.log"), 1, 40*day)

	runCommand(t, "clean", "old", "--path", dir, "--exclude", "[oops")
	assert.Equal(t, []int{1}, exitMocks.exitStatuses)
	assert.True(t, exists(filepath.Join(dir, "old.log")))
}

func TestCleanOldInvalidDays(t *testing.T) {
	setupTests(t)
	runCommand(t, "clean", "old", "--path", t.TempDir(), "--days", "-1")
	assert.Equal(t, []int{1}, exitMocks.exitStatuses)
}

func TestCleanEmpty(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b", "c"), 0755))
	writeFile(t, filepath.Join(dir, "keep", "file"), 1, 0)

	runCommand(t, "clean", "empty", "--path", dir)
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "Removed 3 empty director(ies), 0 error(s)")
	assert.False(t, exists(filepath.Join(dir, "a")))
	assert.True(t, exists(filepath.Join(dir, "keep")))
	assert.True(t, exists(dir))
}

func TestCleanEmptyNotRecursive(t *testing.T) {
	setupTests(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "c"), 0755))

	runCommand(t, "clean", "empty", "--path", dir, "--recursive=false")
	require.Zero(t, exitMocks.fatalCalls())
	assert.True(t, exists(filepath.Join(dir, "a", "b")))
	assert.False(t, exists(filepath.Join(dir, "c")))
}

func TestChmod(t *testing.T) {
	setupTests(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "sub", "script.sh")
	writeFile(t, file, 1, 0)

	runCommand(t, "chmod", "--path", dir, "--mode", "0700", "--recursive")
	require.Zero(t, exitMocks.fatalCalls())

	fi, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), fi.Mode().Perm())
}

func TestChmodInvalidMode(t *testing.T) {
	setupTests(t)
	for _, mode := range []string{"rwx", "0999", "17777"} {
		exitMocks.exitStatuses = exitMocks.exitStatuses[:0]
		runCommand(t, "chmod", "--path", t.TempDir(), "--mode", mode)
		assert.Equalf(t, []int{1}, exitMocks.exitStatuses, "for mode %q", mode)
	}
}

func TestFindLarge(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.bin"), 4096, 0)
	writeFile(t, filepath.Join(dir, "deep", "bigger.bin"), 8192, 0)
	writeFile(t, filepath.Join(dir, "small.bin"), 512, 0)

	runCommand(t, "find", "large", "--path", dir, "--size", "1KB", "--output", "yaml")
	require.Zero(t, exitMocks.fatalCalls())

	var found []struct {
		Path string `yaml:"path"`
		Size int64  `yaml:"size"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &found))
	require.Len(t, found, 2)
	assert.Equal(t, filepath.Join(dir, "deep", "bigger.bin"), found[0].Path)
	assert.Equal(t, int64(4096), found[1].Size)
}

func TestFindLargeInvalidSize(t *testing.T) {
	setupTests(t)
	runCommand(t, "find", "large", "--path", t.TempDir(), "--size", "huge")
	assert.Equal(t, []int{1}, exitMocks.exitStatuses)
}

func TestExec(t *testing.T) {
	out := setupTests(t)
	runCommand(t, "exec", "--", "echo", "hello", "world")
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "hello world\n")
	assert.Contains(t, out.String(), "echo hello world: ok (exit code 0")
}

func TestExecShell(t *testing.T) {
	out := setupTests(t)
	runCommand(t, "exec", "--shell", "echo piped | tr a-z A-Z")
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "PIPED\n")
}

func TestExecExitCodes(t *testing.T) {
	for _, toPin := range []struct {
		name string
		args []string
		want []int
	}{
		{name: "unchecked failure", args: []string{"exec", "--shell", "exit 3"}, want: []int{}},
		{name: "checked failure", args: []string{"exec", "--check", "--shell", "exit 3"}, want: []int{3}},
		{name: "not found", args: []string{"exec", "--", "/nonexistent/autokit-test-binary"}, want: []int{127}},
	} {
		tc := toPin
		t.Run(tc.name, func(t *testing.T) {
			setupTests(t)
			runCommand(t, tc.args...)
			assert.Equal(t, tc.want, exitMocks.exitStatuses)
		})
	}
}

func TestExecArgs(t *testing.T) {
	setupTests(t)
	for _, args := range [][]string{
		{"exec"},
		{"exec", "--shell", "true", "--", "true"},
	} {
		rootCmd.SetArgs(append([]string{"--log-level", "none"}, args...))
		assert.Error(t, rootCmd.Execute())
		resetFlags(rootCmd)
	}
}

func TestExecTimeout(t *testing.T) {
	setupTests(t)
	t0 := time.Now()
	runCommand(t, "exec", "--timeout", "100ms", "--", "sleep", "5")
	assert.Less(t, time.Since(t0), 4*time.Second)
	assert.Equal(t, []int{1}, exitMocks.exitStatuses)
}

func TestDisk(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	runCommand(t, "disk", "--path", dir, "-o", "json")
	require.Zero(t, exitMocks.fatalCalls())

	var du struct {
		Path    string  `json:"path"`
		Total   uint64  `json:"total"`
		Percent float64 `json:"percent"`
	}
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &du))
	assert.Equal(t, dir, du.Path)
	assert.NotZero(t, du.Total)
	assert.True(t, du.Percent >= 0 && du.Percent <= 100)
}

func TestPsNotFound(t *testing.T) {
	out := setupTests(t)
	runCommand(t, "ps", "autokit-no-such-process-7f3a")
	assert.Equal(t, []int{int(unix.ENOENT)}, exitMocks.exitStatuses)
	assert.Contains(t, out.String(), "No process matching")
}

func TestReport(t *testing.T) {
	out := setupTests(t)
	runCommand(t, "report", "--path", t.TempDir(), "-o", "json")
	require.Zero(t, exitMocks.fatalCalls())

	var rep map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &rep))
	assert.Contains(t, rep, "timestamp")
	assert.Contains(t, rep, "diskUsage")
}

func TestCleanup(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	state := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.tmp"), 2048, 45*day)
	writeFile(t, filepath.Join(dir, "fresh.txt"), 1, 0)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "deeper"), 0755))
	metricsFile := filepath.Join(state, "metrics", "autokit.prom")

	runCommand(t, "cleanup", "--target", dir, "--organize",
		"--lock-dir", state, "--metrics-file", metricsFile)
	require.Zero(t, exitMocks.fatalCalls())

	report := out.String()
	for _, line := range []string{
		"CLEANUP REPORT",
		"Old files deleted: 1",
		"Empty directories removed: 2",
		"Files organized: 1",
		"Disk usage: ",
		"Status: success",
	} {
		assert.Contains(t, report, line)
	}
	assert.False(t, exists(filepath.Join(dir, "old.tmp")))
	assert.False(t, exists(filepath.Join(dir, "empty")))
	assert.True(t, exists(filepath.Join(dir, "txt", "fresh.txt")))

	b, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "autokit_last_run_success 1")
	assert.Contains(t, string(b), `autokit_commands_total{command="cleanup",result="ok"}`)
}

func TestCleanupMissingTarget(t *testing.T) {
	out := setupTests(t)
	runCommand(t, "cleanup", "--target", filepath.Join(t.TempDir(), "missing"), "--lock-dir", t.TempDir())
	assert.Equal(t, []int{1}, exitMocks.exitStatuses)
	assert.Contains(t, out.String(), "Status: failed (directory not found)")
}

func TestCleanupQuiet(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.tmp"), 1, 45*day)

	runCommand(t, "cleanup", "--target", dir, "--quiet", "--lock-dir", t.TempDir())
	require.Zero(t, exitMocks.fatalCalls())
	assert.Empty(t, out.String())
	assert.False(t, exists(filepath.Join(dir, "old.tmp")))
}

func TestConfigFile(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "three-days.log"), 1, 3*day)
	writeFile(t, filepath.Join(dir, "today.log"), 1, time.Hour)

	cfg := filepath.Join(t.TempDir(), "autokit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(strings.Join([]string{
		"output: json",
		"lock_dir: " + t.TempDir(),
		"cleanup:",
		"  target: " + dir,
		"  max_age: 48h",
		"",
	}, "\n")), 0644))
	t.Setenv(configEnv, cfg)

	runCommand(t, "cleanup")
	require.Zero(t, exitMocks.fatalCalls())

	var res struct {
		Success    bool   `json:"success"`
		Target     string `json:"target"`
		Operations struct {
			OldFiles struct {
				Deleted int `json:"deleted"`
			} `json:"oldFileCleanup"`
		} `json:"operations"`
	}
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, dir, res.Target)
	assert.Equal(t, 1, res.Operations.OldFiles.Deleted)
	assert.True(t, exists(filepath.Join(dir, "today.log")))
}

func TestExcludeFromEnv(t *testing.T) {
	setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.keep"), 1, 40*day)
	writeFile(t, filepath.Join(dir, "old.part"), 1, 40*day)
	writeFile(t, filepath.Join(dir, "old.log"), 1, 40*day)
	t.Setenv("AUTOKIT_EXCLUDE", "*.keep,*.part")

	runCommand(t, "cleanup", "--target", dir, "--quiet", "--lock-dir", t.TempDir())
	require.Zero(t, exitMocks.fatalCalls())
	assert.True(t, exists(filepath.Join(dir, "old.keep")))
	assert.True(t, exists(filepath.Join(dir, "old.part")))
	assert.False(t, exists(filepath.Join(dir, "old.log")))
}

func TestFlagOverridesConfig(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "three-days.log"), 1, 3*day)

	cfg := filepath.Join(t.TempDir(), "autokit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output: json\ncleanup:\n  max_age: 48h\n"), 0644))
	t.Setenv(configEnv, cfg)

	runCommand(t, "cleanup", "--target", dir, "--days", "7", "--output", "text", "--lock-dir", t.TempDir())
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "Old files deleted: 0")
	assert.True(t, exists(filepath.Join(dir, "three-days.log")))
}

func TestEnvOverride(t *testing.T) {
	out := setupTests(t)
	t.Setenv("AUTOKIT_OUTPUT", "yaml")

	runCommand(t, "version")
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "version: dev")
}

func TestScheduleInvalidCron(t *testing.T) {
	setupTests(t)
	runCommand(t, "schedule", "--cron", "every tuesday", "--target", t.TempDir())
	assert.Equal(t, []int{1}, exitMocks.exitStatuses)
}

func TestScheduleRunNow(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.tmp"), 1, 45*day)

	// stands for the operator's Ctrl-C, once the scheduler is up
	go func() {
		time.Sleep(time.Second)
		_ = unix.Kill(os.Getpid(), unix.SIGINT)
	}()
	runCommand(t, "schedule", "--cron", "@every 1h", "--run-now",
		"--listen", "127.0.0.1:0", "--target", dir, "--lock-dir", t.TempDir())

	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "Old files deleted: 1")
	assert.Contains(t, out.String(), `scheduled "@every 1h", next run at`)
	assert.False(t, exists(filepath.Join(dir, "old.tmp")))
}

func TestCleanupJob(t *testing.T) {
	out := setupTests(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.tmp"), 1, 45*day)

	runCommand(t, "version")
	in := newCliOptionInputs(config, &autokitFlags)
	runner, err := in.cleanupRunner(false)
	require.NoError(t, err)
	out.Reset()

	job := in.cleanupJob(runner, cleanup.Options{Target: dir, LockDir: t.TempDir()})
	require.NoError(t, job(context.Background()))
	assert.Contains(t, out.String(), "Old files deleted: 1")
}

func TestVersion(t *testing.T) {
	out := setupTests(t)
	runCommand(t, "version")
	require.Zero(t, exitMocks.fatalCalls())
	assert.Contains(t, out.String(), "Version: dev")
	assert.Contains(t, out.String(), runtime.Version())
}

func TestVersionJSON(t *testing.T) {
	out := setupTests(t)
	Version = "v1.4.0"
	defer func() { Version = "" }()

	runCommand(t, "version", "--output", "json")
	require.Zero(t, exitMocks.fatalCalls())

	var got VersionInfo
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "v1.4.0", got.Version)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, got.Platform)
}

func TestUsage(t *testing.T) {
	setupTests(t)
	target := filepath.Join(t.TempDir(), "docs")
	runCommand(t, "usage", "--target", target)
	require.Zero(t, exitMocks.fatalCalls())
	assert.True(t, exists(filepath.Join(target, "autokit.md")))
	assert.True(t, exists(filepath.Join(target, "autokit_clean_old.md")))
}
