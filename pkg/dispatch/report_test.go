package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notname9390/lol/pkg/langs"
)

func TestSummarize(t *testing.T) {
	results := []Result{
		{Lang: langs.C, Ok: true, Succeeded: []string{"a.c", "b.c"}},
		{Lang: langs.Cpp, Ok: false, Succeeded: []string{"x.cpp"}, Failed: []string{"y.cpp"}},
		{Lang: langs.Python, Ok: true, Succeeded: []string{"s.py"}},
	}

	summary := Summarize(results)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, Summary{Total: 3, Succeeded: 3}.ExitCode())
	assert.Equal(t, 1, Summary{Total: 3, Succeeded: 2, Failed: 1}.ExitCode())
	assert.Equal(t, 0, Summary{}.ExitCode())
}

func TestAggregateEmptyGroup(t *testing.T) {
	result := aggregate(langs.C, nil)
	assert.True(t, result.Ok)
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.Failed)
}
