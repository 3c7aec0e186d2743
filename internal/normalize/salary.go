package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"fizetesi-info/internal/domain/job"
)

const (
	thousandMarker = "ezer"
	monthlyMarker  = "hó"
)

var numberRe = regexp.MustCompile(`\d+`)

// SalaryRange is a normalized salary. Nil Min/Max means unknown.
type SalaryRange struct {
	Min      *int       `json:"min"`
	Max      *int       `json:"max"`
	Currency string     `json:"currency"`
	Period   job.Period `json:"period"`
}

// EmptySalary is the value returned when nothing could be extracted.
func EmptySalary() SalaryRange {
	return SalaryRange{Currency: job.DefaultCurrency, Period: job.PeriodMonthly}
}

// Salary applies the Hungarian salary heuristic:
//
//	"450-650 ezer Ft/hó" -> {450000, 650000, HUF, monthly}
//
// The first two numbers become min and max in textual order. Reversed
// ranges are passed through unchanged.
func Salary(text string) SalaryRange {
	text = strings.ToLower(CleanText(text))
	if text == "" {
		return EmptySalary()
	}

	multiplier := 1
	if strings.Contains(text, thousandMarker) {
		multiplier = 1000
	}

	nums := make([]int, 0, 2)
	for _, m := range numberRe.FindAllString(text, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		nums = append(nums, n*multiplier)
		if len(nums) == 2 {
			break
		}
	}
	if len(nums) == 0 {
		return EmptySalary()
	}

	period := job.PeriodYearly
	if strings.Contains(text, monthlyMarker) {
		period = job.PeriodMonthly
	}

	lo := nums[0]
	hi := nums[0]
	if len(nums) > 1 {
		hi = nums[1]
	}
	return SalaryRange{Min: &lo, Max: &hi, Currency: job.DefaultCurrency, Period: period}
}

// Apply copies the range onto a record.
func (s SalaryRange) Apply(j *job.RawJob) {
	if j == nil {
		return
	}
	j.SalaryMin = s.Min
	j.SalaryMax = s.Max
	j.SalaryCurrency = s.Currency
	if j.SalaryCurrency == "" {
		j.SalaryCurrency = job.DefaultCurrency
	}
	j.SalaryPeriod = s.Period
	if !j.SalaryPeriod.Valid() {
		j.SalaryPeriod = job.PeriodMonthly
	}
}
