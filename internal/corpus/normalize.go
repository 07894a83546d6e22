// Package corpus models scraped thesis records and decides which of them are
// usable as training material.
package corpus

import (
	"regexp"
	"strconv"

	"github.com/lehigh-university-libraries/thesis-ner/internal/textnorm"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// ParseYear returns the first run of four digits in issued, or 0 when there is
// none or it is below 1000.
func ParseYear(issued string) int {
	match := yearPattern.FindString(issued)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil || year < 1000 {
		return 0
	}
	return year
}

// DocumentType returns the second-to-last breadcrumb entry. DSpace trails end
// with the item itself ("View Item"), so that entry names the collection.
func DocumentType(breadcrumb []string) string {
	if len(breadcrumb) < 2 {
		return ""
	}
	return breadcrumb[len(breadcrumb)-2]
}

// Normalize cleans and upper-cases every textual field of rec. It returns
// false when the record has no cover page text, since such a record can never
// become a training example.
func Normalize(rec Record) (NormalizedRecord, bool) {
	if rec.CoverPageText == nil {
		return NormalizedRecord{}, false
	}

	issued := textnorm.UpperCase(textnorm.NormalizeField(rec.Issued))
	breadcrumb := textnorm.NormalizeFields(rec.Breadcrumb)

	return NormalizedRecord{
		ID:            rec.ID(),
		Title:         textnorm.UpperCase(textnorm.NormalizeField(rec.Title)),
		Abstract:      textnorm.UpperCase(textnorm.NormalizeField(rec.Abstract)),
		Subjects:      textnorm.NormalizeFields(rec.Subjects),
		Authors:       textnorm.NormalizeFields(rec.Authors),
		Advisors:      textnorm.NormalizeFields(rec.Advisors),
		Issued:        issued,
		Breadcrumb:    breadcrumb,
		CoverPageText: textnorm.UpperCase(textnorm.NormalizeBlock(*rec.CoverPageText)),
		Year:          ParseYear(issued),
		DocumentType:  DocumentType(breadcrumb),
	}, true
}
