package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// languageByExt maps file extensions to language names. Deliberately
// coarse: the leaderboard only needs a rough idea of what a contributor
// works in.
var languageByExt = map[string]string{
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".fc":    "FunC",
	".func":  "FunC",
	".go":    "Go",
	".java":  "Java",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".kt":    "Kotlin",
	".md":    "Markdown",
	".php":   "PHP",
	".py":    "Python",
	".rb":    "Ruby",
	".rs":    "Rust",
	".sh":    "Shell",
	".sol":   "Solidity",
	".swift": "Swift",
	".tolk":  "Tolk",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
}

// DetectLanguages derives a sorted, deduplicated list of languages from a
// set of touched file names. Unknown extensions are ignored.
func DetectLanguages(fileNames []string) []string {
	set := make(map[string]struct{})
	for _, f := range fileNames {
		ext := strings.ToLower(filepath.Ext(f))
		if lang, ok := languageByExt[ext]; ok {
			set[lang] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for lang := range set {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
