package jobs

import "strings"

type ResumeData struct {
	Name       string       `json:"name" mapstructure:"name"`
	Email      string       `json:"email" mapstructure:"email"`
	Phone      string       `json:"phone" mapstructure:"phone"`
	Skills     []string     `json:"skills" mapstructure:"skills"`
	Experience []Experience `json:"experience" mapstructure:"experience"`
	Education  []Education  `json:"education" mapstructure:"education"`
}

type Experience struct {
	Title       string `json:"title" mapstructure:"title"`
	Company     string `json:"company" mapstructure:"company"`
	Duration    string `json:"duration" mapstructure:"duration"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

type Education struct {
	Degree string `json:"degree" mapstructure:"degree"`
	School string `json:"school" mapstructure:"school"`
	Year   string `json:"year" mapstructure:"year"`
}

// Positions returns "<title> at <company>" for every experience entry.
// With withDuration set the duration is appended in parentheses.
func (r *ResumeData) Positions(withDuration bool) []string {
	positions := make([]string, 0, len(r.Experience))
	for _, exp := range r.Experience {
		position := exp.Title + " at " + exp.Company
		if withDuration {
			position += " (" + exp.Duration + ")"
		}
		positions = append(positions, position)
	}
	return positions
}

func (r *ResumeData) IsEmpty() bool {
	return r == nil || (strings.TrimSpace(r.Name) == "" && len(r.Skills) == 0)
}
