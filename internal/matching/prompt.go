package matching

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

// Shape selects the output format requested from the gateway.
type Shape string

const (
	// ShapePlainList asks for comma separated job titles.
	ShapePlainList Shape = "plain"
	// ShapeStructured asks for a JSON object with scored recommendations keyed by job id.
	ShapeStructured Shape = "structured"
)

func (s Shape) Valid() bool {
	return s == ShapePlainList || s == ShapeStructured
}

//go:embed prompts/plain.md
var plainTemplate string

//go:embed prompts/structured.md
var structuredTemplate string

//go:embed prompts/system.md
var systemInstruction string

// BuildPrompt renders the prompt for one matching request.
func BuildPrompt(profile *jobboard.Profile, jobs []*jobboard.Job, shape Shape) (string, error) {
	if profile == nil {
		return "", ErrMissingProfile
	}
	if len(jobs) == 0 {
		return "", ErrEmptyCandidateSet
	}

	template := plainTemplate
	switch shape {
	case ShapePlainList:
	case ShapeStructured:
		template = structuredTemplate
	default:
		return "", fmt.Errorf("unknown match shape %q", shape)
	}

	blocks := make([]string, 0, len(jobs))
	for _, job := range jobs {
		blocks = append(blocks, renderJob(job, shape))
	}

	prompt := strings.NewReplacer(
		"{{SKILLS}}", strings.Join(profile.Skills, ", "),
		"{{EXPERIENCE}}", strconv.FormatFloat(profile.YearsOfExperience, 'f', -1, 64),
		"{{PREFERRED_JOB_TYPE}}", string(profile.PreferredJobType),
		"{{LOCATION}}", profile.Location,
		"{{JOBS}}", strings.Join(blocks, "\n"),
	).Replace(template)

	return strings.TrimSpace(prompt), nil
}

func renderJob(job *jobboard.Job, shape Shape) string {
	var b strings.Builder
	if shape == ShapeStructured {
		fmt.Fprintf(&b, "Job ID: %s\n", job.ID)
	}
	fmt.Fprintf(&b, "Job Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Company: %s\n", job.Company)
	fmt.Fprintf(&b, "Location: %s\n", job.Location)
	fmt.Fprintf(&b, "Required Skills: %s\n", strings.Join(job.SkillsRequired, ", "))
	fmt.Fprintf(&b, "Job Type: %s\n", job.JobType)
	if shape == ShapeStructured {
		fmt.Fprintf(&b, "Description: %s\n", job.Description)
	}
	return b.String()
}
