package version

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Latest is the alias resolved to the greatest registered version.
const Latest = "latest"

// Comparator orders two version strings.
// Compare returns -1 if a < b, 0 if a == b and 1 if a > b.
type Comparator interface {
	Compare(a, b string) int
}

// ComparatorFunc adapts a plain function to Comparator.
type ComparatorFunc func(a, b string) int

// Compare implements Comparator.
func (f ComparatorFunc) Compare(a, b string) int { return f(a, b) }

// Semantic is the default comparator (semver precedence with a segment-wise fallback).
type Semantic struct{}

// Default is the comparator used when none is configured.
var Default Comparator = Semantic{}

// Compare implements Comparator.
func (Semantic) Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareSegments(a, b)
}

// Compare orders a and b with the Default comparator.
func Compare(a, b string) int { return Default.Compare(a, b) }

// Parse normalizes v and parses it as a semantic version.
//
// Normalization trims a leading "v", treats "_" as ".", and moves every segment
// after the numeric core into the pre-release part: "2.0.alpha.1" parses as
// "2.0.0-alpha.1".
func Parse(v string) (*semver.Version, error) {
	return semver.NewVersion(normalize(v))
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	v = strings.ReplaceAll(v, "_", ".")

	build := ""
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v, build = v[:i], v[i:]
	}

	segs := splitSegments(v)
	core := make([]string, 0, 3)
	i := 0
	for ; i < len(segs) && isNumeric(segs[i]); i++ {
		core = append(core, segs[i])
	}
	if len(core) == 0 || len(core) > 3 {
		// Let the parser report the error.
		return v + build
	}

	out := strings.Join(core, ".")
	if i < len(segs) {
		out += "-" + strings.Join(segs[i:], ".")
	}
	return out + build
}

// -----------------------------------------------------------------------------
// Fallback ordering
// -----------------------------------------------------------------------------

const (
	rankDev = iota
	rankAlpha
	rankBeta
	rankRC
	rankWord
	rankMissing
	rankNumber
)

func segmentRank(s string) int {
	switch strings.ToLower(s) {
	case "":
		return rankMissing
	case "dev":
		return rankDev
	case "alpha", "a":
		return rankAlpha
	case "beta", "b":
		return rankBeta
	case "rc", "c":
		return rankRC
	}
	if isNumeric(s) {
		return rankNumber
	}
	return rankWord
}

func compareSegments(a, b string) int {
	sa := splitSegments(strings.TrimPrefix(a, "v"))
	sb := splitSegments(strings.TrimPrefix(b, "v"))

	n := len(sa)
	if len(sb) > n {
		n = len(sb)
	}
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(sa) {
			x = sa[i]
		}
		if i < len(sb) {
			y = sb[i]
		}
		if c := compareSegment(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(x, y string) int {
	rx, ry := segmentRank(x), segmentRank(y)
	if rx != ry {
		return cmpInt(rx, ry)
	}
	switch rx {
	case rankNumber:
		nx, _ := strconv.ParseUint(x, 10, 64)
		ny, _ := strconv.ParseUint(y, 10, 64)
		if nx != ny {
			if nx < ny {
				return -1
			}
			return 1
		}
		return 0
	case rankWord:
		return strings.Compare(x, y)
	}
	return 0
}

func splitSegments(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	})
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// Helpers over version lists
// -----------------------------------------------------------------------------

// Sort orders versions ascending in place using c (Default when nil).
// The sort is stable so equal versions keep their input order.
func Sort(c Comparator, versions []string) {
	if c == nil {
		c = Default
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return c.Compare(versions[i], versions[j]) < 0
	})
}

// Floor returns the greatest version in the ascending slice sorted that is not
// greater than id. The scan stops at the first version greater than id.
func Floor(c Comparator, sorted []string, id string) (string, bool) {
	if c == nil {
		c = Default
	}
	last, found := "", false
	for _, v := range sorted {
		if c.Compare(v, id) > 0 {
			break
		}
		last, found = v, true
	}
	return last, found
}

// Max returns the greatest of versions, or false for an empty list.
func Max(c Comparator, versions []string) (string, bool) {
	if c == nil {
		c = Default
	}
	if len(versions) == 0 {
		return "", false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if c.Compare(v, best) > 0 {
			best = v
		}
	}
	return best, true
}
