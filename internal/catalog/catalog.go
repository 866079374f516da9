package catalog

import (
	"slices"

	"github.com/victornm/interviewprep/internal/domain"
)

type Technology struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Level struct {
	ID          domain.Difficulty `json:"id"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
}

// Catalog is what a user can choose from when setting up an interview.
type Catalog struct {
	Technologies   []Technology `json:"technologies"`
	Difficulties   []Level      `json:"difficulties"`
	QuestionCounts []int        `json:"questionCounts"`
}

// Default is the catalog offered by the practice UI.
var Default = Catalog{
	Technologies: []Technology{
		{ID: "javascript", Name: "JavaScript"},
		{ID: "python", Name: "Python"},
		{ID: "java", Name: "Java"},
		{ID: "csharp", Name: "C#"},
		{ID: "react", Name: "React"},
		{ID: "angular", Name: "Angular"},
		{ID: "vue", Name: "Vue.js"},
		{ID: "nodejs", Name: "Node.js"},
		{ID: "sql", Name: "SQL"},
		{ID: "mongodb", Name: "MongoDB"},
		{ID: "aws", Name: "AWS"},
		{ID: "mobile", Name: "Mobile Dev"},
	},
	Difficulties: []Level{
		{ID: domain.DifficultyBeginner, Label: "Beginner", Description: "Fundamental concepts and basic questions"},
		{ID: domain.DifficultyIntermediate, Label: "Intermediate", Description: "Advanced concepts and practical scenarios"},
		{ID: domain.DifficultyAdvanced, Label: "Advanced", Description: "Expert-level problems and system design"},
	},
	QuestionCounts: []int{3, 5, 7, 10},
}

// Technology looks up a technology by id.
func (c Catalog) Technology(id string) (Technology, bool) {
	i := slices.IndexFunc(c.Technologies, func(t Technology) bool { return t.ID == id })
	if i < 0 {
		return Technology{}, false
	}
	return c.Technologies[i], true
}

// AllowsCount reports whether n is one of the offered question counts.
func (c Catalog) AllowsCount(n int) bool {
	return slices.Contains(c.QuestionCounts, n)
}
