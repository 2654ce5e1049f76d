// Package grammar resolves the closed set of grammatical profiles an entity
// can carry: gender/number for pronouns and agreement, and properness for
// article suppression.
package grammar

import "strings"

// Gender selects the pronoun set and verb agreement of an entity.
type Gender uint8

const (
	Neuter Gender = iota
	Masculine
	Feminine
	Plural
)

// String returns a readable name
func (g Gender) String() string {
	switch g {
	case Masculine:
		return "MASCULINE"
	case Feminine:
		return "FEMININE"
	case Plural:
		return "PLURAL"
	default:
		return "NEUTER"
	}
}

// ParseGender parses string to Gender. Unknown values map to Neuter.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MASCULINE", "MALE", "HE":
		return Masculine
	case "FEMININE", "FEMALE", "SHE":
		return Feminine
	case "PLURAL", "THEY":
		return Plural
	default:
		return Neuter
	}
}

// Forms is the resolved capability record for one entity.
// It is chosen once at entity construction and never changes.
type Forms struct {
	Gender     Gender
	Proper     bool
	Article    string // "" for proper nouns
	Possessive string
	Accusative string
	Pronoun    string
	Was        string
	Is         string
}

// Resolve builds the Forms for a gender and properness.
func Resolve(g Gender, proper bool) Forms {
	f := Forms{
		Gender:     g,
		Proper:     proper,
		Article:    "the",
		Possessive: "its",
		Accusative: "it",
		Pronoun:    "it",
		Was:        "was",
		Is:         "is",
	}
	switch g {
	case Masculine:
		f.Possessive, f.Accusative, f.Pronoun = "his", "him", "he"
	case Feminine:
		f.Possessive, f.Accusative, f.Pronoun = "her", "her", "she"
	case Plural:
		f.Possessive, f.Accusative, f.Pronoun = "their", "them", "they"
		f.Was, f.Is = "were", "are"
	}
	if proper {
		f.Article = ""
	}
	return f
}

// Definite renders name with the definite article, if any.
func (f Forms) Definite(name string) string {
	if f.Article == "" {
		return name
	}
	return f.Article + " " + name
}

// Indefinite renders name with an indefinite article.
// Plurals take "some"; proper nouns stay bare.
func (f Forms) Indefinite(name string) string {
	if f.Proper {
		return name
	}
	if f.Gender == Plural {
		return "some " + name
	}
	if startsWithVowel(name) {
		return "an " + name
	}
	return "a " + name
}

func startsWithVowel(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}
