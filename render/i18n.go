package render

import (
	"log"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Label keys, also used as the English text.
const (
	LabelWhile        = "While:"
	LabelRepeat       = "Repeat:"
	LabelNoConditions = "No conditions"
	LabelNoActions    = "No actions"
	LabelNot          = "Not"
	LabelFolded       = "Sub-events folded"
)

func init() {
	translations := map[language.Tag]map[string]string{
		language.French: {
			LabelWhile:        "Tant que :",
			LabelRepeat:       "Répéter :",
			LabelNoConditions: "Aucune condition",
			LabelNoActions:    "Aucune action",
			LabelNot:          "Non",
			LabelFolded:       "Sous-événements repliés",
		},
		language.German: {
			LabelWhile:        "Solange:",
			LabelRepeat:       "Wiederholen:",
			LabelNoConditions: "Keine Bedingungen",
			LabelNoActions:    "Keine Aktionen",
			LabelNot:          "Nicht",
			LabelFolded:       "Unterereignisse eingeklappt",
		},
	}
	registerTranslations(translations)
}

// registerTranslations adds labels to the default catalog. Labels that
// cannot be registered keep their English text. It returns how many failed.
func registerTranslations(translations map[language.Tag]map[string]string) int {
	failed := 0
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				log.Printf("[RENDER] cannot register %s label %q: %v", tag, key, err)
				failed++
			}
		}
	}
	return failed
}

// Label returns the translation of a label key in the configured language.
func (c *Config) Label(key string) string {
	return message.NewPrinter(c.Language).Sprintf(key)
}

// ParseLanguage maps a language name such as "fr_FR" or "de" to a tag,
// falling back to English.
func ParseLanguage(name string) language.Tag {
	if name == "" {
		return language.English
	}
	tag, err := language.Parse(name)
	if err != nil {
		return language.English
	}
	return tag
}
