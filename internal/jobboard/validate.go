package jobboard

import (
	"fmt"
	"math"
	"strings"
)

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found for one entity.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks a normalized job before it is written.
func (j *Job) Validate() error {
	var res ValidationError

	if j.Title == "" {
		res.add("title", "Job title is required")
	}
	if j.Company == "" {
		res.add("company", "Company name is required")
	}
	if j.Location == "" {
		res.add("location", "Location is required")
	}
	if len(j.SkillsRequired) == 0 {
		res.add("skillsRequired", "At least one skill is required")
	}
	if j.Description == "" {
		res.add("description", "Description is required")
	}
	if !j.JobType.Valid() {
		res.add("jobType", "Invalid job type")
	}
	if s := j.Salary; s != nil {
		if s.Min < 0 || s.Max < 0 {
			res.add("salary", "Salary cannot be negative")
		} else if s.Max > 0 && s.Min > s.Max {
			res.add("salary", "Salary minimum cannot exceed maximum")
		}
	}

	return res.orNil()
}

// Validate checks a normalized profile before it is written.
func (p *Profile) Validate() error {
	var res ValidationError

	if p.UserID == "" {
		res.add("user", "User is required")
	}
	if p.Location == "" {
		res.add("location", "Location is required")
	}
	if math.IsNaN(p.YearsOfExperience) || math.IsInf(p.YearsOfExperience, 0) {
		res.add("yearsOfExperience", "Years of experience must be a number")
	} else if p.YearsOfExperience < 0 {
		res.add("yearsOfExperience", "Years of experience cannot be negative")
	}
	if len(p.Skills) == 0 {
		res.add("skills", "At least one skill is required")
	}
	if !p.PreferredJobType.Valid() {
		res.add("preferredJobType", "Invalid job type")
	}

	return res.orNil()
}
