package enrichment

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/llm"
	"fizetesi-info/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient answers by system prompt.
type scriptedClient struct {
	mu       sync.Mutex
	answers  map[string]string
	errs     map[string]error
	requests []llm.Request
}

func (c *scriptedClient) Generate(_ context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if err := c.errs[req.System]; err != nil {
		return "", err
	}
	if out, ok := c.answers[req.System]; ok {
		return out, nil
	}
	return "", errors.New("no scripted answer")
}

func (c *scriptedClient) bySystem(system string) []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []llm.Request
	for _, r := range c.requests {
		if r.System == system {
			out = append(out, r)
		}
	}
	return out
}

var discard = log.New(io.Discard, "", 0)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func sampleJob() job.RawJob {
	return job.RawJob{
		Title:          "Senior Go fejlesztő",
		Company:        strPtr("Példa Kft."),
		SalaryMin:      intPtr(800000),
		SalaryMax:      intPtr(1000000),
		SalaryCurrency: "HUF",
		SalaryPeriod:   job.PeriodMonthly,
		SalaryText:     strPtr("800-1000 ezer Ft/hó"),
		SourcePortal:   "profession.hu",
		Description:    strPtr("Go mikroszolgáltatások fejlesztése, PostgreSQL, Kubernetes."),
		Skills:         []string{"Go"},
	}
}

func TestEnrich_AllStagesSucceed(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{
		salarySystem:   "```json\n{\"min\": 850000, \"max\": 1100000, \"currency\": \"huf\", \"period\": \"monthly\"}\n```",
		categorySystem: "it",
		skillsSystem:   `["Go", "PostgreSQL", "go", " Kubernetes ", ""]`,
		levelSystem:    "Senior.",
	}}
	e := New(c, DefaultConfig(), discard)

	raw := sampleJob()
	got := e.Enrich(context.Background(), raw)

	assert.Equal(t, job.Category("IT"), got.Category)
	assert.Equal(t, job.LevelSenior, got.ExperienceLevel)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, got.Skills)
	require.NotNil(t, got.SalaryMin)
	assert.Equal(t, 850000, *got.SalaryMin)
	assert.Equal(t, 1100000, *got.SalaryMax)
	assert.Equal(t, "HUF", got.SalaryCurrency)
	assert.True(t, got.Enriched)

	// input untouched
	assert.Equal(t, 800000, *raw.SalaryMin)
	assert.Equal(t, []string{"Go"}, raw.Skills)

	for _, r := range c.requests {
		assert.Equal(t, float32(0.3), r.Temperature)
	}
	assert.Equal(t, 200, c.bySystem(salarySystem)[0].MaxTokens)
	assert.Equal(t, 50, c.bySystem(categorySystem)[0].MaxTokens)
	assert.Equal(t, 300, c.bySystem(skillsSystem)[0].MaxTokens)
	assert.Equal(t, 20, c.bySystem(levelSystem)[0].MaxTokens)
}

func TestEnrich_TotalFailureKeepsInput(t *testing.T) {
	down := errors.New("connection reset")
	c := &scriptedClient{errs: map[string]error{
		salarySystem: down, categorySystem: down, skillsSystem: down, levelSystem: down,
	}}
	e := New(c, DefaultConfig(), discard)

	got := e.Enrich(context.Background(), sampleJob())
	assert.Equal(t, job.CategoryOther, got.Category)
	assert.Equal(t, job.LevelMedior, got.ExperienceLevel)
	assert.Equal(t, 800000, *got.SalaryMin)
	assert.Equal(t, 1000000, *got.SalaryMax)
	assert.Equal(t, []string{"Go"}, got.Skills)
	assert.False(t, got.Enriched)
}

func TestEnrich_NoClientFallsBackEverywhere(t *testing.T) {
	e := New(nil, Config{}, discard)
	got := e.Enrich(context.Background(), sampleJob())
	assert.Equal(t, job.CategoryOther, got.Category)
	assert.Equal(t, job.LevelMedior, got.ExperienceLevel)
	assert.Equal(t, 800000, *got.SalaryMin)
	assert.Equal(t, []string{"Go"}, got.Skills)
	assert.False(t, got.Enriched)

	assert.Equal(t, normalize.EmptySalary(), e.RefineSalary(context.Background(), "500 ezer Ft/hó"))
	assert.Equal(t, []string{}, e.ExtractSkills(context.Background(), "desc"))
}

func TestBuild_WithoutKeyDisablesClient(t *testing.T) {
	e, err := Build(context.Background(), DefaultConfig(), nil, 0, discard)
	require.NoError(t, err)
	assert.Nil(t, e.client)
	assert.False(t, e.Enabled())
	assert.True(t, New(&scriptedClient{}, DefaultConfig(), discard).Enabled())
}

func TestEnrich_WithoutDescriptionOnlyRefinesSalary(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{
		salarySystem: `{"min": 6000000, "max": 8000000, "currency": "HUF", "period": "yearly"}`,
	}}
	e := New(c, DefaultConfig(), discard)

	raw := sampleJob()
	raw.Description = nil
	got := e.Enrich(context.Background(), raw)

	assert.Len(t, c.requests, 1)
	assert.Equal(t, job.PeriodYearly, got.SalaryPeriod)
	assert.Equal(t, 6000000, *got.SalaryMin)
	assert.Equal(t, job.CategoryOther, got.Category)
	assert.Equal(t, job.LevelMedior, got.ExperienceLevel)
	assert.True(t, got.Enriched)
}

func TestEnrich_DescriptionWithoutTitleRunsNoDescriptionStages(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{
		categorySystem: "IT", skillsSystem: `["Go"]`, levelSystem: "senior",
	}}
	e := New(c, DefaultConfig(), discard)

	got := e.Enrich(context.Background(), job.RawJob{Description: strPtr("Go fejlesztő kell"), SourcePortal: "jobs.hu"})

	assert.Empty(t, c.requests)
	assert.Empty(t, got.Skills)
	assert.Equal(t, job.CategoryOther, got.Category)
	assert.Equal(t, job.LevelMedior, got.ExperienceLevel)
	assert.False(t, got.Enriched)
}

func TestEnrich_NoSalaryTextSkipsSalaryStage(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{
		categorySystem: "Finance", skillsSystem: `[]`, levelSystem: "junior",
	}}
	e := New(c, DefaultConfig(), discard)

	raw := sampleJob()
	raw.SalaryText = nil
	got := e.Enrich(context.Background(), raw)

	assert.Empty(t, c.bySystem(salarySystem))
	assert.Equal(t, job.Category("Finance"), got.Category)
	assert.Equal(t, job.LevelJunior, got.ExperienceLevel)
	assert.NotNil(t, got.Skills)
	assert.Empty(t, got.Skills)
}

func TestRefineSalary_InvalidOutputs(t *testing.T) {
	outputs := []string{
		"not json",
		`{"min": 1, "max": 2, "currency": "HUF", "period": "weekly"}`,
		`{"min": -5, "max": 2, "currency": "HUF", "period": "monthly"}`,
		`{"min": 1e20, "max": 2, "currency": "HUF", "period": "monthly"}`,
		`["450000"]`,
	}
	for _, out := range outputs {
		c := &scriptedClient{answers: map[string]string{salarySystem: out}}
		e := New(c, DefaultConfig(), discard)
		assert.Equal(t, normalize.EmptySalary(), e.RefineSalary(context.Background(), "450 ezer"), out)
	}
}

func TestRefineSalary_NullBoundsAndMissingCurrency(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{salarySystem: `{"min": null, "max": 2500, "period": "hourly"}`}}
	e := New(c, DefaultConfig(), discard)

	got := e.RefineSalary(context.Background(), "2500 Ft/óra")
	assert.Nil(t, got.Min)
	require.NotNil(t, got.Max)
	assert.Equal(t, 2500, *got.Max)
	assert.Equal(t, "HUF", got.Currency)
	assert.Equal(t, job.PeriodHourly, got.Period)
}

func TestCategorize_OutsideClosedSetIsOther(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{categorySystem: "Gastronomy"}}
	e := New(c, DefaultConfig(), discard)
	assert.Equal(t, job.CategoryOther, e.Categorize(context.Background(), "Szakács", "Főzés"))
}

func TestAssignLevel_UnknownIsMedior(t *testing.T) {
	c := &scriptedClient{answers: map[string]string{levelSystem: "intern"}}
	e := New(c, DefaultConfig(), discard)
	assert.Equal(t, job.LevelMedior, e.AssignLevel(context.Background(), "Gyakornok", "x"))
}

func TestExtractSkills_RejectsNonStringArrays(t *testing.T) {
	for _, out := range []string{`["Go", 5]`, `{"skills": ["Go"]}`, `Go, SQL`} {
		c := &scriptedClient{answers: map[string]string{skillsSystem: out}}
		e := New(c, DefaultConfig(), discard)
		got := e.ExtractSkills(context.Background(), "desc")
		assert.NotNil(t, got, out)
		assert.Empty(t, got, out)
	}
}

func TestPromptsTruncateDescription(t *testing.T) {
	long := strings.Repeat("á", 2000)
	c := &scriptedClient{answers: map[string]string{
		categorySystem: "IT", skillsSystem: `[]`, levelSystem: "lead",
	}}
	e := New(c, DefaultConfig(), discard)

	_ = e.Categorize(context.Background(), "t", long)
	_ = e.ExtractSkills(context.Background(), long)
	_ = e.AssignLevel(context.Background(), "t", long)

	assert.Equal(t, 500, strings.Count(c.bySystem(categorySystem)[0].User, "á"))
	assert.Equal(t, 1500, strings.Count(c.bySystem(skillsSystem)[0].User, "á"))
	assert.Equal(t, 500, strings.Count(c.bySystem(levelSystem)[0].User, "á"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "ár", truncateRunes("árvíztűrő", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.True(t, utf8.ValidString(truncateRunes(strings.Repeat("ő", 600), 500)))
}

func TestTrimAnswer(t *testing.T) {
	assert.Equal(t, "IT", trimAnswer(" \"IT\".\n"))
	assert.Equal(t, "senior", trimAnswer("**senior**"))
}

func TestCheckShape(t *testing.T) {
	assert.NoError(t, checkShape(salarySchema, `{"min": 400000, "max": null, "currency": "HUF", "period": "monthly"}`))
	assert.ErrorContains(t, checkShape(salarySchema, `{"min": 1}`), "period")
	assert.ErrorContains(t, checkShape(salarySchema, `{"min": "sok", "period": "monthly"}`), "min")
	assert.ErrorContains(t, checkShape(salarySchema, `{"min": -1, "period": "monthly"}`), "min")
	assert.ErrorContains(t, checkShape(salarySchema, `nope`), "malformed json")

	assert.NoError(t, checkShape(skillsSchema, `["Go", "SQL"]`))
	assert.ErrorContains(t, checkShape(skillsSchema, `["Go", 5]`), "1")
}
