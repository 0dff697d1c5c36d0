package instructions

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxPathLength is deliberately conservative (Windows' historical
// MAX_PATH) since the install manager has no way to know the deployment
// OS ahead of time.
const maxPathLength = 260

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
}

func init() {
	for i := 1; i <= 9; i++ {
		reservedNames["COM"+strconv.Itoa(i)] = true
		reservedNames["LPT"+strconv.Itoa(i)] = true
	}
}

// sanitizeDestination normalises an instruction's destination path and
// rejects anything that would escape root, per spec.md §4.1/§4.6:
//   - POSIX separators are rewritten to the platform separator only on
//     platforms that distinguish them (a leading '/'-style fomod path
//     is tolerated even on POSIX);
//   - a single leading separator is stripped (§9 Design Notes: fomod
//     leading separators are a known workaround, not an error);
//   - the result must not escape root, use a reserved name, or exceed
//     maxPathLength.
func sanitizeDestination(root, dest string) (string, error) {
	if dest == "" {
		return "", errors.New("empty destination")
	}

	norm := dest
	if runtime.GOOS == "windows" {
		norm = strings.ReplaceAll(norm, "/", string(filepath.Separator))
	}
	norm = strings.TrimPrefix(norm, "/")
	norm = strings.TrimPrefix(norm, string(filepath.Separator))

	if len(norm) > maxPathLength {
		return "", errors.Errorf("destination too long: %s", dest)
	}

	for _, seg := range strings.FieldsFunc(norm, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}) {
		base := strings.ToUpper(strings.TrimSuffix(seg, filepath.Ext(seg)))
		if reservedNames[base] {
			return "", errors.Errorf("reserved name in destination: %s", dest)
		}
	}

	full := filepath.Join(root, norm)
	rootClean := filepath.Clean(root) + string(filepath.Separator)
	if !strings.HasPrefix(full+string(filepath.Separator), rootClean) {
		return "", errors.Errorf("destination escapes staging root: %s", dest)
	}

	return full, nil
}
