// Package images materializes images embedded in work item rich text.
// It derives a local filename for each image URL, downloads it into a
// per-work-item directory and rewrites the references as Markdown.
package images

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultFilename = "image.png"

var (
	attachmentIDRegex = regexp.MustCompile(`attachments/([a-f0-9-]+)`)
	fileNameRegex     = regexp.MustCompile(`fileName=([^&]+)`)
)

// Filename derives the local filename for an image URL: an attachment id in
// the path wins, then the fileName query parameter, then "image.png".
func Filename(rawURL string) string {
	if m := attachmentIDRegex.FindStringSubmatch(rawURL); m != nil {
		return fmt.Sprintf("attachment_%s.png", m[1])
	}
	if m := fileNameRegex.FindStringSubmatch(rawURL); m != nil {
		name := m[1]
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		// Only the last path element is kept so a crafted name cannot leave
		// the image directory.
		name = path.Base(strings.ReplaceAll(name, `\`, "/"))
		switch name {
		case "", ".", "..", "/":
		default:
			return name
		}
	}
	return defaultFilename
}

// ItemDir returns the directory holding the images of one work item.
func ItemDir(root string, itemID int) string {
	return filepath.Join(root, fmt.Sprintf("workitem_%d", itemID))
}

// suffixed inserts "_n" between the base name and the extension:
// shot.png -> shot_1.png, README -> README_1.
func suffixed(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}
