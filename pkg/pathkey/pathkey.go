// Package pathkey decomposes Windows-style inventory paths into the
// (drive, top-level folder) rollup key and the subfolder chains beneath it.
package pathkey

import "strings"

// NotApplicable is the top-level folder label for paths too shallow to have one.
const NotApplicable = "Not Applicable"

const sep = `\`

// FolderKey identifies one rollup bucket.
type FolderKey struct {
	// Drive is the UNC-style root, e.g. `\\server\share`.
	Drive string
	// TopLevelFolder is the third path segment or NotApplicable.
	TopLevelFolder string
}

// Decompose maps a raw directory path to its FolderKey and the subfolder
// identifiers found below the top-level folder.
//
// Leading and trailing backslashes are stripped before splitting, so
// `\\srv\share\Top` and `srv\share\Top\` decompose identically. Paths with
// fewer than two segments use the stripped path verbatim as the drive.
//
// Identifiers are the backslash-joined prefixes of the segments after the
// top-level folder. The full chain is omitted when its last segment contains
// a '.', since that segment names a file rather than a folder.
func Decompose(path string) (FolderKey, []string) {
	stripped := strings.Trim(path, sep)
	parts := strings.Split(stripped, sep)

	if len(parts) < 2 {
		return FolderKey{Drive: stripped, TopLevelFolder: NotApplicable}, nil
	}

	key := FolderKey{
		Drive:          sep + sep + parts[0] + sep + parts[1],
		TopLevelFolder: NotApplicable,
	}
	if len(parts) >= 3 {
		key.TopLevelFolder = parts[2]
	}
	if len(parts) < 4 {
		return key, nil
	}

	return key, subfolderChains(parts[3:])
}

// subfolderChains returns every prefix join of rest, dropping the full chain
// when the final segment looks like a filename.
func subfolderChains(rest []string) []string {
	n := len(rest)
	if IsFileName(rest[n-1]) {
		n--
	}
	if n == 0 {
		return nil
	}

	ids := make([]string, 0, n)
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(rest[i])
		if b.Len() == 0 {
			continue
		}
		ids = append(ids, b.String())
	}
	return ids
}

// IsFileName reports whether a path segment is treated as a filename.
func IsFileName(segment string) bool {
	return strings.Contains(segment, ".")
}
