package review

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/codeready-toolchain/docflow/pkg/agent"
)

var chineseRunRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)

// checkTerminologyConsistency flags glossary terms whose Chinese rendering
// is inconsistent across the document: every line mentioning the English
// term (case-insensitively) is expected to carry the glossary's translation;
// any other Chinese segment found instead is recorded as a competing
// rendering. Grounded on original_source's review_agent.py
// _check_terminology_consistency.
func checkTerminologyConsistency(translatedMD string, glossary map[string]string) []agent.TermIssue {
	if translatedMD == "" || len(glossary) == 0 {
		return nil
	}

	lines := strings.Split(translatedMD, "\n")

	terms := make([]string, 0, len(glossary))
	for term := range glossary {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var issues []agent.TermIssue
	for _, englishTerm := range terms {
		expectedChinese := glossary[englishTerm]
		pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(englishTerm))

		found := map[string][]string{}

		for i, line := range lines {
			if !pattern.MatchString(line) {
				continue
			}
			location := "Line " + strconv.Itoa(i+1)
			if expectedChinese != "" && strings.Contains(line, expectedChinese) {
				found[expectedChinese] = append(found[expectedChinese], location)
				continue
			}
			for _, seg := range chineseRunRe.FindAllString(line, -1) {
				if len([]rune(seg)) >= 2 {
					found[seg] = append(found[seg], location)
				}
			}
		}

		if expectedChinese != "" {
			for i, line := range lines {
				if strings.Contains(line, expectedChinese) && !pattern.MatchString(line) {
					found[expectedChinese] = append(found[expectedChinese], "Line "+strconv.Itoa(i+1))
				}
			}
		}

		if len(found) > 1 {
			observed := make([]string, 0, len(found))
			var allLocations []string
			for rendering, locs := range found {
				observed = append(observed, rendering)
				allLocations = append(allLocations, locs...)
			}
			sort.Strings(observed)

			issues = append(issues, agent.TermIssue{
				EnglishTerm: englishTerm,
				Observed:    observed,
				Locations:   dedupeSortedStrings(allLocations),
				Suggested:   expectedChinese,
			})
		}
	}

	return issues
}

func dedupeSortedStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
