package services

import (
	"fmt"
	"regexp"
	"strconv"

	log "github.com/sirupsen/logrus"

	"remsort/internal/models"
)

// Swedish personal identity numbers in ÅÅÅÅMMDD-XXXX form.
var personalNumberRe = regexp.MustCompile(`\b(19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])-\d{4}\b`)

type datePattern struct {
	re *regexp.Regexp
	// group indexes for day, month, year within the match
	day, month, year int
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`), 1, 2, 3},
	{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), 3, 2, 1},
	{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{2,4})\b`), 1, 2, 3},
}

// ExtractFields pulls the personal number and referral date out of the
// document text. Either field may come back empty when nothing matches.
func ExtractFields(text string) models.DocumentFields {
	fields := models.DocumentFields{}

	if m := personalNumberRe.FindString(text); m != "" {
		log.Infof("Found personal number %s", m)
		fields.PersonalNumber = m
	} else {
		log.Warn("No personal number found")
	}

	if date := findReferralDate(text); date != "" {
		log.Infof("Found referral date %s", date)
		fields.ReferralDate = date
	} else {
		log.Warn("No valid referral date found")
	}

	return fields
}

// findReferralDate returns the first parseable date in YYYY-MM-DD form.
// Two-digit years pivot at 50: below maps to 2000s, the rest to 1900s.
func findReferralDate(text string) string {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			year, _ := strconv.Atoi(m[p.year])
			if len(m[p.year]) == 2 {
				if year < 50 {
					year += 2000
				} else {
					year += 1900
				}
			}
			month, _ := strconv.Atoi(m[p.month])
			day, _ := strconv.Atoi(m[p.day])

			if year >= 1900 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
				return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			}
		}
	}
	return ""
}
