// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ddw-trends pipeline:
// abstract records, analysis results, and stage configuration.
package types

// Category is a research category label assigned by the rule-based labeler.
type Category string

const (
	CategoryClinicalTrial Category = "clinical_trial"
	CategoryObservational Category = "observational"
	CategoryBasicScience  Category = "basic_science"
	CategoryMetaAnalysis  Category = "meta_analysis"
	CategoryCaseStudy     Category = "case_study"
	CategoryOther         Category = "other"
)

// Categories lists every category in labeling priority order.
var Categories = []Category{
	CategoryClinicalTrial,
	CategoryObservational,
	CategoryBasicScience,
	CategoryMetaAnalysis,
	CategoryCaseStudy,
	CategoryOther,
}

// Valid reports whether c is one of the closed set of categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RawColumns are the CSV columns of a raw (unlabeled) abstract file.
var RawColumns = []string{
	"title",
	"abstract",
	"author",
	"author_affiliation",
	"presentation_date",
}

// ProcessedColumns are the CSV columns of a processed abstract file. Order
// and names are fixed for downstream compatibility.
var ProcessedColumns = []string{
	"title",
	"abstract",
	"author",
	"author_affiliation",
	"presentation_date",
	"clean_abstract",
	"word_count",
	"contains_covid",
	"research_category",
	"geography",
}

// AbstractRecord is one submitted research abstract. The first five fields
// are raw strings from the source; the rest are derived by the labeler.
type AbstractRecord struct {
	Title             string `json:"title" yaml:"title"`
	Abstract          string `json:"abstract" yaml:"abstract"`
	Author            string `json:"author" yaml:"author"`
	AuthorAffiliation string `json:"author_affiliation" yaml:"author_affiliation"`
	PresentationDate  string `json:"presentation_date" yaml:"presentation_date"`

	// CleanAbstract is the lowercased, punctuation-free, whitespace-collapsed abstract.
	CleanAbstract string `json:"clean_abstract" yaml:"clean_abstract"`

	// WordCount is the number of whitespace-delimited tokens in CleanAbstract.
	WordCount int `json:"word_count" yaml:"word_count"`

	// ContainsCOVID is true when CleanAbstract mentions COVID-19 or SARS-CoV-2.
	ContainsCOVID bool `json:"contains_covid" yaml:"contains_covid"`

	ResearchCategory Category `json:"research_category" yaml:"research_category"`

	// Geography is the trailing affiliation token. It is not validated
	// against any list of countries.
	Geography string `json:"geography" yaml:"geography"`
}

// COVIDFlag returns ContainsCOVID as 0 or 1.
func (r AbstractRecord) COVIDFlag() int {
	if r.ContainsCOVID {
		return 1
	}
	return 0
}

// Dataset is an ordered collection of abstract records for one year or the
// union across years.
type Dataset []AbstractRecord

// Clone returns a copy of d that shares no backing array with it.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}
