package jobboard

import (
	"strings"
	"time"
)

const defaultCurrency = "USD"

// JobType is the working arrangement of a posting.
type JobType string

const (
	JobTypeRemote JobType = "remote"
	JobTypeOnsite JobType = "onsite"
	JobTypeHybrid JobType = "hybrid"
)

// Valid reports whether the job type is one of the known arrangements.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeRemote, JobTypeOnsite, JobTypeHybrid:
		return true
	default:
		return false
	}
}

// PreferredJobType is the arrangement a candidate is looking for.
type PreferredJobType string

const (
	PreferRemote PreferredJobType = "remote"
	PreferOnsite PreferredJobType = "onsite"
	PreferAny    PreferredJobType = "any"
)

func (t PreferredJobType) Valid() bool {
	switch t {
	case PreferRemote, PreferOnsite, PreferAny:
		return true
	default:
		return false
	}
}

type Salary struct {
	Min      float64 `json:"min,omitempty" yaml:"min"`
	Max      float64 `json:"max,omitempty" yaml:"max"`
	Currency string  `json:"currency,omitempty" yaml:"currency"`
}

// Job is a posting published by an admin.
type Job struct {
	ID             string    `json:"id" yaml:"-"`
	Title          string    `json:"title" yaml:"title"`
	Company        string    `json:"company" yaml:"company"`
	Location       string    `json:"location" yaml:"location"`
	SkillsRequired []string  `json:"skillsRequired" yaml:"skillsRequired"`
	Description    string    `json:"description" yaml:"description"`
	JobType        JobType   `json:"jobType" yaml:"jobType"`
	Salary         *Salary   `json:"salary,omitempty" yaml:"salary"`
	SalaryText     string    `json:"salaryText,omitempty" yaml:"salaryText"`
	IsActive       bool      `json:"isActive" yaml:"-"`
	CreatedAt      time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"-"`
}

// Normalize trims textual fields in place and fills defaults.
func (j *Job) Normalize() {
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)
	j.Description = strings.TrimSpace(j.Description)
	j.SalaryText = strings.TrimSpace(j.SalaryText)
	j.JobType = JobType(strings.TrimSpace(string(j.JobType)))
	j.SkillsRequired = TrimSkills(j.SkillsRequired)

	if j.Salary != nil {
		j.Salary.Currency = strings.TrimSpace(j.Salary.Currency)
		if j.Salary.Currency == "" {
			j.Salary.Currency = defaultCurrency
		}
	}
}

// Clone returns a deep copy so callers never share slices with a store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.SkillsRequired = append([]string(nil), j.SkillsRequired...)
	if j.Salary != nil {
		salary := *j.Salary
		out.Salary = &salary
	}
	return &out
}

// Profile describes a candidate. There is at most one per user.
type Profile struct {
	UserID            string           `json:"userId"`
	Location          string           `json:"location"`
	YearsOfExperience float64          `json:"yearsOfExperience"`
	Skills            []string         `json:"skills"`
	PreferredJobType  PreferredJobType `json:"preferredJobType"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func (p *Profile) Normalize() {
	p.UserID = strings.TrimSpace(p.UserID)
	p.Location = strings.TrimSpace(p.Location)
	p.Skills = TrimSkills(p.Skills)
	p.PreferredJobType = PreferredJobType(strings.TrimSpace(string(p.PreferredJobType)))
	if p.PreferredJobType == "" {
		p.PreferredJobType = PreferAny
	}
}

func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Skills = append([]string(nil), p.Skills...)
	return &out
}

// TrimSkills trims every entry and drops the empty ones. Order is preserved.
func TrimSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		out = append(out, skill)
	}
	return out
}
