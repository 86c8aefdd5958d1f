package logs

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("LevelFiltering", func(t *testing.T) {
		logger := NewLoggerWithOutput(10, INFO, io.Discard)
		// Minimum level is INFO
		logger.Debug("should not be logged")
		logger.Info("should be logged")
		logger.Warn("should be logged")
		logger.Error("should be logged")

		entries := logger.GetLast(10)
		assert.Len(t, entries, 3, "Logger should have ignored DEBUG but kept INFO, WARN, and ERROR")
		assert.Equal(t, INFO, entries[0].Level)
		assert.Equal(t, WARN, entries[1].Level)
		assert.Equal(t, ERROR, entries[2].Level)
	})

	t.Run("RingBufferBehavior", func(t *testing.T) {
		// max size is 2 so adding a 3rd entry shall push out the first entry (FIFO)
		logger := NewLoggerWithOutput(2, DEBUG, io.Discard)

		logger.Info("first")
		logger.Info("second")
		logger.Info("third")

		entries := logger.GetLast(10)
		assert.Len(t, entries, 2, "Logger should only keep maxSize entries")
		assert.Equal(t, "second", entries[0].Message)
		assert.Equal(t, "third", entries[1].Message)
	})

	t.Run("WriteThrough", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithOutput(10, DEBUG, &buf)

		logger.Infof("client %d connected", 7)

		assert.Contains(t, buf.String(), "[INFO] client 7 connected")
	})

	t.Run("FilteredEntriesAreNotWritten", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithOutput(10, WARN, &buf)

		logger.Info("quiet")
		logger.Warn("loud")

		out := buf.String()
		assert.NotContains(t, out, "quiet")
		assert.Contains(t, out, "[WARN] loud")
	})

	t.Run("ZeroBufferKeepsNothing", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithOutput(0, DEBUG, &buf)

		logger.Info("still written through")

		assert.Empty(t, logger.GetLast(10))
		assert.Contains(t, buf.String(), "still written through")
	})

	t.Run("ConcurrentLogging", func(t *testing.T) {
		// 50 different goroutines logging simultaneously
		logger := NewLoggerWithOutput(100, DEBUG, io.Discard)
		var wg sync.WaitGroup
		numLogs := 50

		for i := 0; i < numLogs; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				logger.Infof("concurrent log %d", i)
			}(i)
		}
		wg.Wait()

		entries := logger.GetLast(100)
		assert.Len(t, entries, numLogs, "Logger should have all concurrent log entries")
	})

	t.Run("GetLastBoundaries", func(t *testing.T) {
		// 3 logs in memory
		// test requesting more, equal and less than available logs
		logger := NewLoggerWithOutput(10, DEBUG, io.Discard)
		logger.Info("msg1")
		logger.Info("msg2")
		logger.Info("msg3")

		// case 1: request more than available (should return all 3)
		assert.Len(t, logger.GetLast(10), 3)

		// case 2: request exactly available (should return all 3)
		assert.Len(t, logger.GetLast(3), 3)

		// case 3: request less than available (should return last 2)
		lastTwo := logger.GetLast(2)
		assert.Len(t, lastTwo, 2)
		assert.Equal(t, "msg2", lastTwo[0].Message)
		assert.Equal(t, "msg3", lastTwo[1].Message)

		// case 4: negative n behaves like zero
		assert.Empty(t, logger.GetLast(-1))
	})

	t.Run("DeepCopyProtection", func(t *testing.T) {
		logger := NewLoggerWithOutput(10, DEBUG, io.Discard)
		logger.Info("original message")

		entries := logger.GetLast(1)
		entries[0].Message = "modified message"

		entriesAfterModification := logger.GetLast(1)
		assert.Equal(t, "original message", entriesAfterModification[0].Message, "Modifying retrieved entries should not affect internal log storage")
	})
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warn ", WARN},
		{"Error", ERROR},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			level, err := ParseLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, level)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
