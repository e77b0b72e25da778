// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package label normalizes abstract text and derives categorical features
// with fixed rule sets. Every function in this package is pure.
package label

import (
	"regexp"
	"strings"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// nonWord matches characters outside the word and space classes. Letters
// and digits of any script count as word characters.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Zs}]`)

var covidPattern = regexp.MustCompile(`(?i)covid|sars-cov-2|coronavirus`)

// Rule assigns Category to text matching Pattern.
type Rule struct {
	Category types.Category
	Pattern  *regexp.Regexp
}

// Rules are evaluated in order and the first match wins, so an abstract
// mentioning both a trial and in vitro work is a clinical trial.
var Rules = []Rule{
	{types.CategoryClinicalTrial, regexp.MustCompile(`(?i)trial|randomized|placebo`)},
	{types.CategoryObservational, regexp.MustCompile(`(?i)cohort|retrospective|prospective`)},
	{types.CategoryBasicScience, regexp.MustCompile(`(?i)vitro|vivo|molecular|cellular`)},
	{types.CategoryMetaAnalysis, regexp.MustCompile(`(?i)meta-analysis|systematic review`)},
	{types.CategoryCaseStudy, regexp.MustCompile(`(?i)case report|case series`)},
}

// CleanText lowercases text, strips punctuation and symbols, and collapses
// runs of whitespace to a single space.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ContainsCOVID reports whether text mentions COVID-19, SARS-CoV-2 or coronavirus.
func ContainsCOVID(text string) bool {
	return covidPattern.MatchString(text)
}

// Categorize returns the category of the first matching rule, or
// CategoryOther when none match.
func Categorize(text string) types.Category {
	for _, r := range Rules {
		if r.Pattern.MatchString(text) {
			return r.Category
		}
	}
	return types.CategoryOther
}

// Geography returns the trimmed text after the last comma of an
// affiliation, or the whole trimmed affiliation when it has no comma.
func Geography(affiliation string) string {
	if i := strings.LastIndex(affiliation, ","); i >= 0 {
		affiliation = affiliation[i+1:]
	}
	return strings.TrimSpace(affiliation)
}

// Label returns rec with its derived fields computed from the raw fields.
func Label(rec types.AbstractRecord) types.AbstractRecord {
	clean := CleanText(rec.Abstract)
	rec.CleanAbstract = clean
	rec.WordCount = WordCount(clean)
	rec.ContainsCOVID = ContainsCOVID(clean)
	rec.ResearchCategory = Categorize(clean)
	rec.Geography = Geography(rec.AuthorAffiliation)
	return rec
}

// Process labels every record of raw and returns a new dataset in the same
// order. raw is not modified.
func Process(raw types.Dataset) types.Dataset {
	out := make(types.Dataset, len(raw))
	for i, rec := range raw {
		out[i] = Label(rec)
	}
	return out
}
