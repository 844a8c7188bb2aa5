package check

import (
	"github.com/jtraglia/ethspecify/internal/spec"
)

// checkCoverage reconciles the item history of one category against the
// triples declared in a checked file. Every name#fork pair present in
// history must appear among the declared pairs unless excepted; pairs
// declared but absent from history are permitted. Returns the number of
// covered pairs, the number expected, and the missing qualified refs.
func checkCoverage(history spec.History, selector string, declared []tagRef, exceptions []string) (found, expected int, missing []string) {
	category, ok := spec.CategoryForSelector(selector)
	if !ok {
		return 0, 0, nil
	}

	declaredPairs := make(map[string]bool, len(declared))
	for _, tr := range declared {
		declaredPairs[tr.Pair()] = true
	}

	for name, forks := range history[category] {
		for _, fork := range forks {
			expected++
			if isExcepted(name, fork, exceptions) {
				continue
			}
			if !declaredPairs[name+"#"+fork] {
				missing = append(missing, tagRef{Selector: selector, Name: name, Fork: fork}.Ref())
			}
		}
	}
	return expected - len(missing), expected, missing
}
