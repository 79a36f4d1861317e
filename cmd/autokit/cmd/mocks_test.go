package cmd

import (
	"bytes"
	"fmt"
	"log"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type ExitMocks struct {
	mock.Mock
	exitStatuses []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	fmt.Printf(format+"\n", v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	fmt.Println(v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Exit(code int) {
	m.exitStatuses = append(m.exitStatuses, code)
}

func (m *ExitMocks) fatalCalls() int {
	return len(m.exitStatuses)
}

func NewExitMocks() *ExitMocks {
	exitMocks := ExitMocks{
		exitStatuses: make([]int, 0),
	}
	return &exitMocks
}

// https://github.com/stretchr/testify/issues/610
func MakeFatalfMock(m *ExitMocks) func(string, ...interface{}) {
	return func(format string, v ...interface{}) {
		m.Fatalf(format, v...)
	}
}

func MakeFatallnMock(m *ExitMocks) func(...interface{}) {
	return func(v ...interface{}) {
		m.Fatalln(v...)
	}
}

func MakeExitMock(m *ExitMocks) func(int) {
	return func(code int) {
		m.Exit(code)
	}
}

var exitMocks *ExitMocks

// resetFlags puts every flag back to its default, as flags keep their value across executions
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if s, ok := f.Value.(pflag.SliceValue); ok {
			_ = s.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setupTests mocks the fatal hooks and captures the output of commands
func setupTests(t *testing.T) *bytes.Buffer {
	savedFatalln, savedFatalf, savedExit, savedInfo := logFatalln, logFatalf, osExit, infoLogger
	t.Cleanup(func() {
		logFatalln, logFatalf, osExit, infoLogger = savedFatalln, savedFatalf, savedExit, savedInfo
	})

	exitMocks = NewExitMocks()
	logFatalln = MakeFatallnMock(exitMocks)
	logFatalf = MakeFatalfMock(exitMocks)
	osExit = MakeExitMock(exitMocks)

	var out bytes.Buffer
	infoLogger = log.New(&out, "", 0)

	t.Setenv(configEnv, "")
	resetFlags(rootCmd)
	return &out
}

// runCommand executes autokit with args, logging disabled
func runCommand(t *testing.T, args ...string) {
	rootCmd.SetArgs(append([]string{"--log-level", "none"}, args...))
	require.NoError(t, rootCmd.Execute())
}
