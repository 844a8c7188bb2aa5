package check

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// checkSources validates every source pointer of the given entries
// against the project tree rooted at root. It returns the number of
// valid pointers, the total number checked, and one human-readable line
// per problem. Entries with an empty sources list are flagged unless
// the referenced item is excepted.
func checkSources(refs []SpecRef, root string, exceptions []string) (valid, total int, errors []string) {
	for _, ref := range refs {
		if !ref.HasSources {
			continue
		}

		specRef, haveRef := refLabel(ref)

		if len(ref.Sources) == 0 {
			total++
			if haveRef {
				if tr, ok := extractTagRef(ref.Spec); ok && isExcepted(tr.Name, tr.Fork, exceptions) {
					continue
				}
				errors = append(errors, "EMPTY SOURCES: "+specRef)
			} else {
				name := ref.Name
				if name == "" {
					name = "unknown"
				}
				errors = append(errors, fmt.Sprintf("EMPTY SOURCES: No sources defined (%s)", name))
			}
			continue
		}

		prefix := ""
		if haveRef {
			prefix = specRef + " | "
		}
		for _, source := range ref.Sources {
			if source.File == "" {
				continue
			}
			total++
			if msg := checkSource(source, root, prefix); msg != "" {
				errors = append(errors, msg)
			}
		}
	}
	return total - len(errors), total, errors
}

// refLabel derives the label used in error lines: the qualified tag
// reference when recoverable, else the legacy name field.
func refLabel(ref SpecRef) (string, bool) {
	if tr, ok := extractTagRef(ref.Spec); ok {
		return tr.Ref(), true
	}
	if ref.Name != "" {
		return ref.Name, true
	}
	return "", false
}

// checkSource validates one pointer: file existence, optional line
// range, optional literal or regex search. Returns "" when valid.
func checkSource(source SourceRef, root, prefix string) string {
	filePath := source.File
	lineRange := ""
	if i := strings.Index(filePath, "#L"); i >= 0 {
		lineRange = strings.ReplaceAll(filePath[i+2:], "L", "")
		filePath = filePath[:i]
	}

	fullPath := filepath.Join(root, filePath)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "MISSING FILE: " + prefix + filePath
		}
		return "ERROR READING: " + prefix + filePath
	}
	content := string(data)

	if lineRange != "" {
		if msg := checkLineRange(lineRange, content, filePath, prefix); msg != "" {
			return msg
		}
	}

	pattern := source.Regex.pattern(source.Search)
	switch {
	case pattern != "":
		re, err := regexp.Compile("(?m)" + pattern)
		if err != nil {
			return fmt.Sprintf("INVALID REGEX: %s'%s' in %s - %v", prefix, pattern, filePath, err)
		}
		switch count := len(re.FindAllStringIndex(content, -1)); {
		case count == 0:
			return fmt.Sprintf("REGEX NOT FOUND: %s'%s' in %s", prefix, pattern, filePath)
		case count > 1:
			return fmt.Sprintf("AMBIGUOUS REGEX: %s'%s' found %d times in %s", prefix, pattern, count, filePath)
		}
	case source.Search != "":
		switch count := strings.Count(content, source.Search); {
		case count == 0:
			return fmt.Sprintf("SEARCH NOT FOUND: %s'%s' in %s", prefix, source.Search, filePath)
		case count > 1:
			return fmt.Sprintf("AMBIGUOUS SEARCH: %s'%s' found %d times in %s", prefix, source.Search, count, filePath)
		}
	}
	return ""
}

// checkLineRange validates a 1-indexed "start" or "start-end" range
// against the actual file length. Returns "" when valid.
func checkLineRange(lineRange, content, filePath, prefix string) string {
	totalLines := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") && content != "" {
		totalLines++
	}

	invalid := func(detail string) string {
		return fmt.Sprintf("INVALID LINE RANGE: %s#%s - %s in %s", prefix, lineRange, detail, filePath)
	}

	start, end := lineRange, lineRange
	if i := strings.Index(lineRange, "-"); i >= 0 {
		start, end = lineRange[:i], lineRange[i+1:]
	}
	startLine, err := strconv.Atoi(start)
	if err != nil {
		return invalid("invalid line format")
	}
	endLine, err := strconv.Atoi(end)
	if err != nil {
		return invalid("invalid line format")
	}

	if startLine < 1 || endLine < 1 || startLine > endLine {
		return invalid("invalid range")
	}
	if endLine > totalLines {
		return invalid(fmt.Sprintf("line %d exceeds file length (%d)", endLine, totalLines))
	}
	return ""
}
