package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(4)
	progress.Advance(nil)
	progress.Advance(errors.New("engine timeout"))
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Submitted:") {
		t.Error("Expected progress output to contain 'Submitted:'")
	}
	if !strings.Contains(output, "(2/4, 1 failed)") {
		t.Errorf("Expected counts in output, got %q", output)
	}
}

func TestSimpleProgressCounts(t *testing.T) {
	progress := NewProgressReporter(&bytes.Buffer{}).(*SimpleProgress)

	progress.Start(2)
	progress.Advance(nil)
	progress.Advance(fmt.Errorf("busy"))
	progress.Advance(nil) // beyond total, ignored

	done, failed := progress.Counts()
	if done != 2 || failed != 2 {
		t.Errorf("Counts() = (%d, %d), want (2, 2)", done, failed)
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Advance(nil)
	progress.Finish()

	if strings.Contains(buf.String(), "Submitted:") {
		t.Errorf("zero total should not render a bar, got %q", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "Error:") {
		t.Error("Expected error output to contain 'Error:'")
	}
	if !strings.Contains(output, "test error") {
		t.Error("Expected error output to contain error message")
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf).(*SimpleProgress)

	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Advance(nil)
			}
		}()
	}
	wg.Wait()
	progress.Finish()

	if done, _ := progress.Counts(); done != 1000 {
		t.Errorf("done = %d, want 1000", done)
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Fatal("NewProgressReporter(nil) should not return nil")
	}
	if p := progress.(*SimpleProgress); p.writer == nil {
		t.Error("nil writer should default to stderr")
	}
}
