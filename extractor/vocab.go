package extractor

import (
	"regexp"
	"strings"
)

// Brands is the make vocabulary shared by the candidate filter, title
// picking and brand extraction. Alternation order is match priority.
var Brands = []string{
	"Toyota", "Mazda", "Subaru", "Honda", "Lexus", "Mercedes", "BMW", "Nissan",
	"Audi", "Volkswagen", "Volvo", "Land Rover", "Chevrolet",
	"Yamaha", "Suzuki", "Kawasaki", "Ducati", "KTM", "Bajaj", "TVS",
	"Royal Enfield", "Husqvarna", "Kibo", "Jincheng", "Skygo", "KPR",
}

var brandRegexp = compileAlternation(Brands)

// Labeled pairs a classification label with the pattern that selects it.
type Labeled struct {
	Label   string
	Pattern *regexp.Regexp
}

// BodyTypes is evaluated top to bottom and the first match wins. Impreza is
// listed under both Sedan and Hatchback; Sedan takes it.
var BodyTypes = []Labeled{
	{"SUV", regexp.MustCompile(`(?i)\b(SUV|X\s?TRAIL|RAV\s?4|FORESTER|HARRIER|CX[- ]?5|CX[- ]?8)\b`)},
	{"Sedan", regexp.MustCompile(`(?i)\b(Sedan|C200|E250|C180|Passat|Impreza|Axio|S60|523i)\b`)},
	{"Hatchback", regexp.MustCompile(`(?i)\b(Hatchback|Vitz|Auris|Demio|Fit|Impreza)\b`)},
	{"Pickup", regexp.MustCompile(`(?i)\b(Pickup|Hilux|D-Max)\b`)},
	{"Convertible", regexp.MustCompile(`(?i)\b(Convertible|Cabrio|Roadster)\b`)},
	{"Van", regexp.MustCompile(`(?i)\b(Van|Noah|Voxy|Hiace)\b`)},
}

// Boilerplate lists lower-cased UI phrases that never belong in a title or
// description. A line containing any of them is discarded.
var Boilerplate = []string{
	"search vehicle",
	"filter by budget",
	"advanced search",
	"brand & model",
	"available in kenya",
	"direct import",
	"both",
	"click here",
	"explore bikes",
	"show results of",
}

// availabilityKeywords and currencyTokens gate candidate selection.
var (
	availabilityKeywords = []string{"available", "foreign used", "kenyan used", "brand new"}
	currencyTokens       = []string{"kes", "ksh"}
)

func compileAlternation(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// IsBoilerplate reports whether s contains a denylisted UI phrase.
func IsBoilerplate(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range Boilerplate {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// MatchesBrand reports whether s mentions any vocabulary brand.
func MatchesBrand(s string) bool {
	return brandRegexp.MatchString(s)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
