package services

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure policies implement the interface.
var (
	_ driven.GroupingPolicy = NormalizedNamePolicy{}
	_ driven.GroupingPolicy = NoGroupingPolicy{}
)

// versionSuffixes match the trailing markers people add to new versions of a
// file. They are stripped repeatedly until none match.
var versionSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`[\s_.-]*\(\d+\)$`),
	regexp.MustCompile(`[\s_.-]+copy(\s*\d+)?$`),
	regexp.MustCompile(`[\s_.-]+v\d+$`),
	regexp.MustCompile(`[\s_.-]+(final|draft|revised|rev\d*|updated)$`),
	regexp.MustCompile(`[\s_.-]*\d{4}[-_.]?\d{2}[-_.]?\d{2}$`),
}

var separators = regexp.MustCompile(`[\s_.-]+`)

// NormalizedNamePolicy groups files whose names differ only by accents, case,
// extension, separators or a version suffix. Files in different directories
// never share a group.
type NormalizedNamePolicy struct{}

// NewGroupingPolicy returns the policy for a configured name.
// Unknown names fall back to the normalised-name policy.
func NewGroupingPolicy(name string) driven.GroupingPolicy {
	if name == domain.GroupingNone {
		return NoGroupingPolicy{}
	}
	return NormalizedNamePolicy{}
}

// Name identifies the policy.
func (NormalizedNamePolicy) Name() string {
	return domain.GroupingNormalizedName
}

// GroupKey returns the normalised name of relpath, prefixed by its directory.
func (NormalizedNamePolicy) GroupKey(relpath string) string {
	relpath = strings.ReplaceAll(relpath, "\\", "/")
	dir, base := path.Split(relpath)
	stem := strings.TrimSuffix(base, path.Ext(base))

	stem = foldName(stem)
	for changed := true; changed; {
		changed = false
		for _, re := range versionSuffixes {
			if loc := re.FindStringIndex(stem); loc != nil && loc[0] > 0 {
				stem = stem[:loc[0]]
				changed = true
			}
		}
	}
	stem = strings.Trim(separators.ReplaceAllString(stem, "_"), "_")
	if stem == "" {
		return ""
	}
	return strings.ToLower(dir) + stem
}

// foldName lower-cases s and strips diacritics.
func foldName(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// NoGroupingPolicy never groups files, so nothing is ever superseded.
type NoGroupingPolicy struct{}

// Name identifies the policy.
func (NoGroupingPolicy) Name() string {
	return domain.GroupingNone
}

// GroupKey always opts out.
func (NoGroupingPolicy) GroupKey(string) string {
	return ""
}
