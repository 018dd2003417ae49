package grammar

import (
	"regexp"
	"strconv"
)

var (
	debrisBonePattern = regexp.MustCompile(`(?i)^(bone_?\d+_)*(.*(_db)*)_\d+$`)
	submeshPattern    = regexp.MustCompile(`_(\d*)_(\d+)$`)
)

// ParseDebrisBone extracts the cluster name from a debris root bone:
// (bone_<n>_)*<cluster>(_db)?_<index>.
func ParseDebrisBone(name string) (string, bool) {
	m := debrisBonePattern.FindStringSubmatch(name)
	if m == nil || m[2] == "" {
		return "", false
	}
	return m[2], true
}

// SubmeshIndex parses the trailing _<a>_<b> pair of a debris mesh name and
// returns b. Names without the pair have index 0 and ok is false.
func SubmeshIndex(name string) (int, bool) {
	m := submeshPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return n, true
}
