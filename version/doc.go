// Package version orders the version strings used to key versioned models.
//
// Versions come from namespace segments such as "v1_2" or "v20171215", so they
// are not always well-formed semantic versions. The Semantic comparator accepts:
//
//   - semantic versions with an optional leading "v" ("1.2.3", "v2.0-rc.1")
//   - short forms ("1", "1.2") and integer dates ("20210316"), compared numerically
//   - dotted pre-release spellings ("2.0.alpha.1" == "2.0-alpha.1")
//
// Anything the semver parser rejects (for example "1.2.3.4") is ordered by a
// segment-wise fallback so that Compare is total.
//
// Comparators are pluggable: locators and registries take a Comparator option,
// so a project with its own scheme can supply a ComparatorFunc.
package version
