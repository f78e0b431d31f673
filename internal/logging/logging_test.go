package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"reachcheck/internal/task"
)

func TestStatusSuppressedUnderCompact(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Compact: true}
	p.Status("scanning...")
	assert.Empty(t, buf.String())
}

func TestStatusPrintsWithCarriageReturn(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	p.Status("scanning...")
	assert.Equal(t, "\rscanning...", buf.String())
}

func TestTaskSuppressedUnderCompact(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Compact: true}
	p.Task("prog", []string{"PredicateAnalysisCEGAR"}, []string{"unreach-call"})
	assert.Empty(t, buf.String())
}

func TestTaskRendersSingleItemsBare(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	p.Task("prog", []string{"PredicateAnalysisCEGAR"}, []string{"unreach-call"})
	assert.Equal(t, "Verifying prog against unreach-call using PredicateAnalysisCEGAR\n", buf.String())
}

func TestTaskRendersMultipleItemsAsList(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	p.Task("prog", []string{"ValueAnalysis", "PredicateAnalysisCEGAR"}, []string{"unreach-call", "termination"})
	assert.Equal(t,
		"Verifying prog against [unreach-call, termination] using [ValueAnalysis, PredicateAnalysisCEGAR]\n",
		buf.String())
}

func TestDebugGatedByLogLevelAndCompact(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, LogLevel: 1}
	p.Debug(2, "too verbose")
	assert.Empty(t, buf.String())

	p.Debug(1, "visible")
	assert.Equal(t, "visible\n", buf.String())

	buf.Reset()
	p.Compact = true
	p.Debug(1, "suppressed by compact")
	assert.Empty(t, buf.String())
}

func TestResultAlwaysPrintsEvenUnderCompact(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Compact: true}
	r := &task.Result{Status: task.StatusOK, Verdict: task.VerdictTrue}
	p.Result(r, "prog", "")
	assert.Equal(t, "prog: OK TRUE\n", buf.String())
}

func TestResultAppendsNoteSuffix(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Compact: true}
	r := &task.Result{Status: task.StatusError, Verdict: task.VerdictUnknown}
	p.Result(r, "prog", "refinement fixpoint")
	assert.Equal(t, "prog: ERROR UNKNOWN (refinement fixpoint)\n", buf.String())
}

func TestResultNonCompactIncludesLeadingNewline(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	r := &task.Result{Status: task.StatusError, Verdict: task.VerdictFalse}
	p.Result(r, "prog", "")
	assert.Equal(t, "\nprog: ERROR FALSE\n", buf.String())
}

func TestIntermediateGatedByLogLevelAndCompact(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	r := &task.Result{Status: task.StatusError, Verdict: task.VerdictUnknown}

	p.Intermediate(r, "prog", 0)
	assert.Empty(t, buf.String(), "LogLevel 0 suppresses intermediate output")

	p.LogLevel = 1
	p.Intermediate(r, "prog", 3)
	assert.Equal(t, "\nprog: ERROR UNKNOWN (refinement 3)\n", buf.String())

	buf.Reset()
	p.Compact = true
	p.Intermediate(r, "prog", 4)
	assert.Empty(t, buf.String())
}

func TestNewDefaultsToStdout(t *testing.T) {
	p := New(true, 2)
	assert.True(t, p.Compact)
	assert.Equal(t, 2, p.LogLevel)
	assert.NotNil(t, p.Out)
}
