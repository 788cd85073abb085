// Package deploylog performs heuristic analysis of deployment command
// output: error-line classification and deployment/alias URL extraction.
//
// Both are best-effort pattern matches over unstructured text, not a parser
// against a guaranteed format. Absence of a match yields empty results,
// never an error. Classification is an explicit ordered list of
// (predicate, category, hint) rules evaluated top to bottom with
// first-match-wins semantics — deliberately not a rule engine.
package deploylog

import (
	"regexp"
	"strings"
)

// Category classifies a failure line.
type Category string

// Failure categories.
const (
	CategoryEnv     Category = "env"
	CategoryBuild   Category = "build"
	CategoryConfig  Category = "config"
	CategoryNetwork Category = "network"
	CategoryUnknown Category = "unknown"
)

// maxFindings caps how many failure lines are reported.
const maxFindings = 5

// Finding is one classified failure line with a remediation hint.
type Finding struct {
	Line     string
	Category Category
	Hint     string
}

// URLs holds the extracted deployment endpoints. PublicURL prefers the
// aliased form; DeployURL is the raw per-deployment address.
type URLs struct {
	DeployURL string
	PublicURL string
}

// triggerKeywords decide whether the output contains a failure at all.
var triggerKeywords = []string{"error", "failed", "cannot find", "not found", "enoent"}

// findingKeywords is the extended set a line must match to be selected.
var findingKeywords = []string{"error", "failed", "cannot find", "not found", "enoent", "missing", "undefined", "null"}

type rule struct {
	keywords []string
	category Category
	hint     string
}

// classifyRules in evaluation order; the first matching rule wins.
var classifyRules = []rule{
	{
		keywords: []string{"env", "environment", "secret", "api-key"},
		category: CategoryEnv,
		hint:     "Check that all required environment variables are set on the hosting project (vercel env ls).",
	},
	{
		keywords: []string{"build", "compile", "syntax", "npm", "python", "module", "package"},
		category: CategoryBuild,
		hint:     "Fix the build error locally (npm run build) before redeploying.",
	},
	{
		keywords: []string{"config", "vercel.json", "next.config"},
		category: CategoryConfig,
		hint:     "Review vercel.json and the framework configuration for invalid settings.",
	},
	{
		keywords: []string{"timeout", "econnrefused", "network", "dns", "connection"},
		category: CategoryNetwork,
		hint:     "Check your network connection and retry the deployment.",
	},
}

const unknownHint = "Inspect the full deployment log (vercel logs) for details."

// AnalyzeErrors selects and classifies up to five failure lines from the
// deployment output, in original order. It returns nil when the joined
// output contains no failure trigger.
func AnalyzeErrors(lines []string) []Finding {
	joined := strings.ToLower(strings.Join(lines, "\n"))
	if !containsAny(joined, triggerKeywords) {
		return nil
	}

	var findings []Finding
	for _, line := range lines {
		if len(findings) == maxFindings {
			break
		}
		lower := strings.ToLower(line)
		if !containsAny(lower, findingKeywords) {
			continue
		}
		category, hint := classify(lower)
		findings = append(findings, Finding{Line: line, Category: category, Hint: hint})
	}
	return findings
}

func classify(lower string) (Category, string) {
	for _, r := range classifyRules {
		if containsAny(lower, r.keywords) {
			return r.category, r.hint
		}
	}
	return CategoryUnknown, unknownHint
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var (
	// deployURLPattern matches production deployment hostnames on the two
	// known hosting-platform domains.
	deployURLPattern = regexp.MustCompile(`https://[a-zA-Z0-9.-]+\.(?:vercel\.app|now\.sh)\S*`)

	// urlLabelPattern matches an explicit "url:" label.
	urlLabelPattern = regexp.MustCompile(`(?i)\burl:\s*(https://\S+)`)

	// aliasPattern matches the aliased (canonical public) URL line.
	aliasPattern = regexp.MustCompile(`(?i)\baliased:\s*(https://\S+)`)
)

// ExtractURLs searches the output for the raw deployment URL and the
// public (aliased) URL. The alias form is preferred as the canonical
// public URL, with the generic extracted URL as fallback.
func ExtractURLs(lines []string) URLs {
	var urls URLs

	for _, line := range lines {
		if urls.DeployURL == "" {
			if m := deployURLPattern.FindString(line); m != "" {
				urls.DeployURL = m
			} else if m := urlLabelPattern.FindStringSubmatch(line); m != nil {
				urls.DeployURL = m[1]
			}
		}
		if m := aliasPattern.FindStringSubmatch(line); m != nil {
			urls.PublicURL = m[1]
		}
	}

	// A trailing line that is exactly a platform URL also names the
	// public address.
	if urls.PublicURL == "" {
		for i := len(lines) - 1; i >= 0; i-- {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" {
				continue
			}
			if deployURLPattern.FindString(trimmed) == trimmed {
				urls.PublicURL = trimmed
			}
			break
		}
	}

	if urls.PublicURL == "" {
		urls.PublicURL = urls.DeployURL
	}
	return urls
}
