package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer, "Import", "")
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestInterrupt_CancelsContext(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "No permits were saved.")
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx := handler.HandleInterrupts(parent)
	require.NoError(t, ctx.Err())

	handler.interrupt()
	<-ctx.Done()

	assert.True(t, handler.WasInterrupted())
	assert.Contains(t, output.String(), "Import interrupted!")
	assert.Contains(t, output.String(), "No permits were saved.")
}

func TestInterrupt_OnlyOnce(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "")
	_ = handler.HandleInterrupts(context.Background())

	handler.interrupt()
	handler.interrupt()

	assert.Equal(t, 1, strings.Count(output.String(), "Import interrupted!"))
}

func TestInterrupt_ParentDone(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "")
	parent, cancel := context.WithCancel(context.Background())

	ctx := handler.HandleInterrupts(parent)
	cancel()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		note        string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with note",
			note:     "No permits were saved.",
			expected: []string{"Import interrupted!", "No permits were saved."},
		},
		{
			name:        "without note",
			expected:    []string{"Import interrupted!"},
			notExpected: []string{InfoIcon},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := NewInterruptHandler(&output, "Import", tt.note)

			handler.showInterruptMessage()

			for _, expected := range tt.expected {
				assert.Contains(t, output.String(), expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, output.String(), notExpected)
			}
		})
	}
}

func TestInterrupt_Stop(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "")
	ctx := handler.HandleInterrupts(context.Background())

	handler.Stop()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}
