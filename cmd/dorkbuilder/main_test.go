// File: cmd/dorkbuilder/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(fmt.Errorf("shell: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("writes panic log", func(t *testing.T) {
		var (
			gotName string
			gotData []byte
			code    = -1
		)
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			gotName, gotData = name, data
			return nil
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("kaboom")
		}()

		assert.Equal(t, 2, code)
		assert.Equal(t, panicLogFile, gotName)
		require.NotEmpty(t, gotData)
		assert.True(t, strings.HasPrefix(string(gotData), "panic: kaboom"))
		assert.Contains(t, string(gotData), "goroutine")
	})

	t.Run("write failure still exits", func(t *testing.T) {
		code := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("kaboom")
		}()

		assert.Equal(t, 2, code)
	})

	t.Run("no panic", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }

		func() {
			defer handlePanic()
		}()

		assert.False(t, called)
	})
}
