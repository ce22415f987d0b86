package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthtab/synthtab/pkg/models"
)

func writeTestCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func customerCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("email,age,salary,dept\n")
	depts := []string{"sales", "support", "research"}
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "user%d@example.com,%d,%d,%s\n",
			i, 22+i%40, 30000+i*250, depts[i%3])
	}
	return writeTestCSV(t, dir, "customers.csv", b.String())
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "profile.json")

	cmd := NewAnalyzeCmd()
	cmd.SetArgs([]string{"--input", input, "--output", output})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var report struct {
		Rows        int                              `json:"rows"`
		Columns     int                              `json:"columns"`
		Profiles    map[string]*models.ColumnProfile `json:"profiles"`
		PIIFindings []*models.PIIFinding             `json:"pii_findings"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, 60, report.Rows)
	assert.Equal(t, 4, report.Columns)
	assert.Len(t, report.Profiles, 4)

	require.Len(t, report.PIIFindings, 1)
	assert.Equal(t, "email", report.PIIFindings[0].ColumnName)
	assert.Equal(t, models.PIITypeEmail, report.PIIFindings[0].Type)
}

func TestAnalyzeCommandMissingInput(t *testing.T) {
	cmd := NewAnalyzeCmd()
	cmd.SetArgs([]string{"--input", "/nonexistent/file.csv"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}

func TestAnonymizeCommand(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "clean.csv")
	report := filepath.Join(dir, "report.json")

	cmd := NewAnonymizeCmd()
	cmd.SetArgs([]string{
		"--input", input,
		"--output", output,
		"--report", report,
		"--consistent",
		"--seed", "7",
	})
	require.NoError(t, cmd.Execute())

	cleaned, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(cleaned), "user0@example.com")

	data, err := os.ReadFile(report)
	require.NoError(t, err)

	var rep models.AnonymizationReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Contains(t, rep.ColumnsProcessed, "email")
	assert.Equal(t, 60, rep.TotalReplacements)
	assert.True(t, rep.Consistent)
}

func TestDPApplyCommand(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "noisy.csv")
	report := filepath.Join(dir, "noise.json")

	cmd := NewDPCmd()
	cmd.SetArgs([]string{
		"apply",
		"--input", input,
		"--output", output,
		"--report", report,
		"--epsilon", "1.0",
		"--columns", "age,salary",
		"--seed", "42",
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(report)
	require.NoError(t, err)

	var rep models.NoiseReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, 1.0, rep.Epsilon)
	assert.ElementsMatch(t, []string{"age", "salary"}, rep.ColumnsProcessed)
	assert.Contains(t, rep.NoiseStatistics, "salary")

	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func TestDPApplyCommandRejectsBadBudget(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)

	cmd := NewDPCmd()
	cmd.SetArgs([]string{
		"apply",
		"--input", input,
		"--output", filepath.Join(dir, "noisy.csv"),
		"--epsilon", "-1",
	})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}

func TestDPCheckKCommand(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "kanon.json")

	cmd := NewDPCmd()
	cmd.SetArgs([]string{
		"check-k",
		"--input", input,
		"--quasi-identifiers", "dept",
		"--k", "5",
		"--output", output,
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var result models.KAnonymityResult
	require.NoError(t, json.Unmarshal(data, &result))
	// 60 rows over 3 departments gives groups of 20.
	assert.True(t, result.IsKAnonymous)
	assert.Equal(t, 20, result.SmallestGroupSize)
}

func TestDPRecommendCommand(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "rec.json")

	cmd := NewDPCmd()
	cmd.SetArgs([]string{
		"recommend",
		"--sensitivity", "high",
		"--use-case", "public_release",
		"--output", output,
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var rec models.EpsilonRecommendation
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, 0.05, rec.RecommendedEpsilon)
	assert.Equal(t, "very_high", rec.PrivacyLevel)
}

func TestValidateSimilarityCommandSelf(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "similarity.json")

	cmd := NewValidateCmd()
	cmd.SetArgs([]string{
		"similarity",
		"--original", input,
		"--synthetic", input,
		"--output", output,
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var rep models.SimilarityReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, 1.0, rep.OverallSimilarity)
}

func TestValidateUtilityCommand(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "utility.json")

	cmd := NewValidateCmd()
	cmd.SetArgs([]string{
		"utility",
		"--original", input,
		"--synthetic", input,
		"--target", "dept",
		"--output", output,
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var rep models.UtilityReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "classification", rep.TaskType)
	assert.GreaterOrEqual(t, rep.UtilityScore, 0.0)
	assert.LessOrEqual(t, rep.UtilityScore, 1.0)
}

func TestPipelineRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := customerCSV(t, dir)
	output := filepath.Join(dir, "synth.csv")
	report := filepath.Join(dir, "run.json")

	cmd := NewPipelineCmd()
	cmd.SetArgs([]string{
		"run",
		"--input", input,
		"--output", output,
		"--report", report,
		"--rows", "40",
		"--seed", "11",
		"--anonymize",
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(report)
	require.NoError(t, err)

	var result struct {
		RunID         string                   `json:"run_id"`
		SyntheticRows int                      `json:"synthetic_rows"`
		Similarity    *models.SimilarityReport `json:"similarity"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 40, result.SyntheticRows)
	require.NotNil(t, result.Similarity)

	synth, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(synth), "\n"), "\n")
	assert.Len(t, lines, 41)
}
