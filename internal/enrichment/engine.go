// Package enrichment refines scraped jobs with a text-generation model.
// Every stage has a fallback, so enrichment never fails as a whole.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/llm"
	"fizetesi-info/internal/normalize"
)

const (
	shortContextRunes  = 500
	skillsContextRunes = 1500
)

type StageTokens struct {
	Salary   int
	Category int
	Skills   int
	Level    int
}

type Config struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   StageTokens
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider:    llm.ProviderOpenAI,
		Model:       "gpt-3.5-turbo",
		Temperature: 0.3,
		MaxTokens:   StageTokens{Salary: 200, Category: 50, Skills: 300, Level: 20},
		Timeout:     30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxTokens.Salary <= 0 {
		c.MaxTokens.Salary = def.MaxTokens.Salary
	}
	if c.MaxTokens.Category <= 0 {
		c.MaxTokens.Category = def.MaxTokens.Category
	}
	if c.MaxTokens.Skills <= 0 {
		c.MaxTokens.Skills = def.MaxTokens.Skills
	}
	if c.MaxTokens.Level <= 0 {
		c.MaxTokens.Level = def.MaxTokens.Level
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

func (c Config) llmConfig() llm.Config {
	return llm.Config{
		Provider: c.Provider,
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Model:    c.Model,
		Timeout:  c.Timeout,
	}
}

type Engine struct {
	client llm.Client
	cfg    Config
	logger *log.Logger

	warnedNoClient atomic.Bool
}

// New wraps client. A nil client makes every stage fall back.
func New(client llm.Client, cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{client: client, cfg: cfg.withDefaults(), logger: logger}
}

// Build creates the provider client from cfg. When cache is non-nil,
// responses are cached for cacheTTL.
func Build(ctx context.Context, cfg Config, cache llm.Cache, cacheTTL time.Duration, logger *log.Logger) (*Engine, error) {
	client, err := llm.NewClient(ctx, cfg.llmConfig())
	if errors.Is(err, llm.ErrNoAPIKey) {
		return New(nil, cfg, logger), nil
	}
	if err != nil {
		return nil, err
	}
	if cache != nil {
		client = llm.NewCachedClient(client, cache, cfg.Model, cacheTTL, logger)
	}
	return New(client, cfg, logger), nil
}

// Enabled reports whether a model client is wired.
func (e *Engine) Enabled() bool {
	return e != nil && e.client != nil
}

func (e *Engine) generate(ctx context.Context, stage, system, user string, maxTokens int) (string, error) {
	if e.client == nil {
		if e.warnedNoClient.CompareAndSwap(false, true) {
			e.logger.Printf("enrich level=warn status=disabled reason=no_api_key")
		}
		return "", llm.ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := e.client.Generate(ctx, llm.Request{
		System:      system,
		User:        user,
		Temperature: e.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", stage, err)
	}
	return out, nil
}

func (e *Engine) fallback(stage string, err error) {
	if errors.Is(err, llm.ErrNoAPIKey) {
		return
	}
	e.logger.Printf("enrich stage=%s level=error status=fallback err=%v", stage, err)
}

// RefineSalary asks the model to normalize salary text. Failures give the
// empty salary.
func (e *Engine) RefineSalary(ctx context.Context, text string) normalize.SalaryRange {
	s, err := e.refineSalary(ctx, text)
	if err != nil {
		e.fallback("salary", err)
		return normalize.EmptySalary()
	}
	return s
}

type salaryPayload struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
	Period   string   `json:"period"`
}

func (e *Engine) refineSalary(ctx context.Context, text string) (normalize.SalaryRange, error) {
	text = normalize.CleanText(text)
	if text == "" {
		return normalize.SalaryRange{}, errors.New("empty salary text")
	}
	out, err := e.generate(ctx, "salary", salarySystem, salaryPrompt(text), e.cfg.MaxTokens.Salary)
	if err != nil {
		return normalize.SalaryRange{}, err
	}

	doc := llm.CleanJSONBlock(out)
	if err := checkShape(salarySchema, doc); err != nil {
		return normalize.SalaryRange{}, fmt.Errorf("salary stage: %w", err)
	}
	var p salaryPayload
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return normalize.SalaryRange{}, fmt.Errorf("salary stage: malformed json: %w", err)
	}
	period := job.Period(strings.ToLower(strings.TrimSpace(p.Period)))
	if !period.Valid() {
		return normalize.SalaryRange{}, fmt.Errorf("salary stage: invalid period %q", p.Period)
	}
	lo, err := toInt(p.Min)
	if err != nil {
		return normalize.SalaryRange{}, fmt.Errorf("salary stage: min: %w", err)
	}
	hi, err := toInt(p.Max)
	if err != nil {
		return normalize.SalaryRange{}, fmt.Errorf("salary stage: max: %w", err)
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = job.DefaultCurrency
	}
	return normalize.SalaryRange{Min: lo, Max: hi, Currency: currency, Period: period}, nil
}

func toInt(f *float64) (*int, error) {
	if f == nil {
		return nil, nil
	}
	v := math.Round(*f)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxInt32 {
		return nil, fmt.Errorf("out of range: %v", *f)
	}
	n := int(v)
	return &n, nil
}

// Categorize maps a posting onto the closed category set. Anything else
// becomes Other.
func (e *Engine) Categorize(ctx context.Context, title, description string) job.Category {
	c, err := e.categorize(ctx, title, description)
	if err != nil {
		e.fallback("category", err)
		return job.CategoryOther
	}
	return c
}

func (e *Engine) categorize(ctx context.Context, title, description string) (job.Category, error) {
	out, err := e.generate(ctx, "category", categorySystem,
		categoryPrompt(title, truncateRunes(description, shortContextRunes)), e.cfg.MaxTokens.Category)
	if err != nil {
		return job.CategoryOther, err
	}
	c, ok := job.ParseCategory(trimAnswer(out))
	if !ok {
		return job.CategoryOther, fmt.Errorf("unknown category %q", out)
	}
	return c, nil
}

// ExtractSkills returns the skills named in description, or an empty list.
func (e *Engine) ExtractSkills(ctx context.Context, description string) []string {
	skills, err := e.extractSkills(ctx, description)
	if err != nil {
		e.fallback("skills", err)
		return []string{}
	}
	return skills
}

func (e *Engine) extractSkills(ctx context.Context, description string) ([]string, error) {
	out, err := e.generate(ctx, "skills", skillsSystem,
		skillsPrompt(truncateRunes(description, skillsContextRunes)), e.cfg.MaxTokens.Skills)
	if err != nil {
		return nil, err
	}

	doc := llm.CleanJSONBlock(out)
	if err := checkShape(skillsSchema, doc); err != nil {
		return nil, fmt.Errorf("skills stage: %w", err)
	}
	var raw []string
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, fmt.Errorf("skills stage: expected a json array of strings: %w", err)
	}
	skills := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = normalize.CleanText(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		skills = append(skills, s)
	}
	return skills, nil
}

// AssignLevel classifies seniority. Unknown answers become medior.
func (e *Engine) AssignLevel(ctx context.Context, title, description string) job.Level {
	l, err := e.assignLevel(ctx, title, description)
	if err != nil {
		e.fallback("level", err)
		return job.DefaultLevel
	}
	return l
}

func (e *Engine) assignLevel(ctx context.Context, title, description string) (job.Level, error) {
	out, err := e.generate(ctx, "level", levelSystem,
		levelPrompt(title, truncateRunes(description, shortContextRunes)), e.cfg.MaxTokens.Level)
	if err != nil {
		return job.DefaultLevel, err
	}
	l, ok := job.ParseLevel(trimAnswer(out))
	if !ok {
		return job.DefaultLevel, fmt.Errorf("unknown level %q", out)
	}
	return l, nil
}

// Enrich runs every applicable stage on a copy of raw. A failed salary or
// skills stage keeps the values raw already had. The description stages
// need both a title and a description. Enriched reports whether any stage
// succeeded.
func (e *Engine) Enrich(ctx context.Context, raw job.RawJob) job.EnrichedJob {
	out := job.EnrichedJob{
		RawJob:          raw.Clone(),
		Category:        job.CategoryOther,
		ExperienceLevel: job.DefaultLevel,
	}

	if raw.SalaryText != nil && strings.TrimSpace(*raw.SalaryText) != "" {
		if s, err := e.refineSalary(ctx, *raw.SalaryText); err != nil {
			e.fallback("salary", err)
		} else {
			s.Apply(&out.RawJob)
			out.Enriched = true
		}
	}

	title := strings.TrimSpace(raw.Title)
	description := ""
	if raw.Description != nil {
		description = strings.TrimSpace(*raw.Description)
	}
	if title == "" || description == "" {
		return out
	}

	if c, err := e.categorize(ctx, title, description); err != nil {
		e.fallback("category", err)
	} else {
		out.Category = c
		out.Enriched = true
	}
	if skills, err := e.extractSkills(ctx, description); err != nil {
		e.fallback("skills", err)
	} else {
		out.Skills = skills
		out.Enriched = true
	}
	if l, err := e.assignLevel(ctx, title, description); err != nil {
		e.fallback("level", err)
	} else {
		out.ExperienceLevel = l
		out.Enriched = true
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// trimAnswer strips quoting and punctuation models add to one-word answers.
func trimAnswer(s string) string {
	s = strings.TrimSpace(llm.CleanJSONBlock(s))
	return strings.Trim(s, "\"'`.:;!* \t\r\n")
}
