// Package locale resolves display labels for canonical category slugs.
package locale

import (
	"golang.org/x/text/language"

	"petitionhub-backend/models"
)

// Supported languages. The first entry is the fallback.
var supported = []language.Tag{
	language.English,
	language.Indonesian,
}

var matcher = language.NewMatcher(supported)

var labels = map[language.Tag]map[models.Category]string{
	language.English: {
		models.CategoryEnvironment:      "Environment",
		models.CategoryUrbanDevelopment: "Urban Development",
		models.CategoryEducation:        "Education",
		models.CategoryHealth:           "Health",
		models.CategoryAnimalRights:     "Animal Rights",
		models.CategoryHumanRights:      "Human Rights",
	},
	language.Indonesian: {
		models.CategoryEnvironment:      "Lingkungan",
		models.CategoryUrbanDevelopment: "Pembangunan Kota",
		models.CategoryEducation:        "Pendidikan",
		models.CategoryHealth:           "Kesehatan",
		models.CategoryAnimalRights:     "Hak-Hak Hewan",
		models.CategoryHumanRights:      "Hak Asasi Manusia",
	},
}

// CategoryOption is one entry of the category picker
type CategoryOption struct {
	Value models.Category `json:"value"`
	Label string          `json:"label"`
}

// Match picks the best supported language for an Accept-Language header or
// a bare tag such as "id". Unknown or empty input falls back to English.
func Match(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Label returns the display label of c in lang. Unknown categories are
// returned as their slug.
func Label(lang language.Tag, c models.Category) string {
	if l, ok := labels[lang][c]; ok {
		return l
	}
	if l, ok := labels[supported[0]][c]; ok {
		return l
	}
	return string(c)
}

// Categories lists every category with its label in lang
func Categories(lang language.Tag) []CategoryOption {
	opts := make([]CategoryOption, 0, len(models.Categories))
	for _, c := range models.Categories {
		opts = append(opts, CategoryOption{Value: c, Label: Label(lang, c)})
	}
	return opts
}

// FromLabel maps a display label in any supported language back to its
// slug. Used when importing legacy documents that stored labels.
func FromLabel(label string) (models.Category, bool) {
	for _, byCat := range labels {
		for c, l := range byCat {
			if l == label {
				return c, true
			}
		}
	}
	return "", false
}
