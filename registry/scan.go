package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sghaida/vdto/catalog"
)

// ScanResult is the outcome of Scan.
type ScanResult struct {
	// Interfaces holds the non-excluded interface names found, sorted.
	Interfaces []string
	// ModelsByInterface maps an interface name to version to class name.
	ModelsByInterface map[string]map[string]string
}

// HasInterface reports whether iface was found and not excluded.
func (r *ScanResult) HasInterface(iface string) bool {
	i := sort.SearchStrings(r.Interfaces, iface)
	return i < len(r.Interfaces) && r.Interfaces[i] == iface
}

// VersionPattern returns the expression matching versioned class names under
// namespace. Group 1 is the major segment, group 2 the version segment.
func VersionPattern(namespace string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(namespace) + `\.v(.+?)\.v(.+?)\.`)
}

// ClassVersion extracts the version of a class name under namespace.
func ClassVersion(pattern *regexp.Regexp, className string) (string, bool) {
	m := pattern.FindStringSubmatch(className)
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(m[2], "_", "."), true
}

// Scan enumerates namespace in cat. Excluded interfaces are left out of
// Interfaces but classes are still recorded against them.
func Scan(cat catalog.Catalog, namespace string, excluded map[string]bool) (*ScanResult, error) {
	classes, err := cat.Enumerate(namespace)
	if err != nil {
		return nil, fmt.Errorf("registry: enumerate %q: %w", namespace, err)
	}

	pattern := VersionPattern(namespace)
	res := &ScanResult{ModelsByInterface: map[string]map[string]string{}}
	for _, c := range classes {
		if c.IsInterface() {
			if !excluded[c.Name] {
				res.Interfaces = append(res.Interfaces, c.Name)
			}
			continue
		}

		v, ok := ClassVersion(pattern, c.Name)
		if !ok {
			continue
		}
		for _, iface := range c.Interfaces {
			versions := res.ModelsByInterface[iface]
			if versions == nil {
				versions = map[string]string{}
				res.ModelsByInterface[iface] = versions
			}
			versions[v] = c.Name
		}
	}
	sort.Strings(res.Interfaces)
	return res, nil
}
