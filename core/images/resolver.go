package images

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/extract"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

// embeddedHeading introduces the image references appended to a field.
const embeddedHeading = "**Embedded Images:**"

// ImageResult is the outcome for one discovered image. A result with an
// empty LocalPath is a soft failure: the reference points at RemoteURL.
type ImageResult struct {
	RemoteURL string
	LocalPath string
	Filename  string
	Err       error
}

// Downloaded reports whether the image was written locally.
func (r ImageResult) Downloaded() bool {
	return r.LocalPath != ""
}

// Target is the Markdown link target for the image.
func (r ImageResult) Target() string {
	if r.Downloaded() {
		return r.LocalPath
	}
	return r.RemoteURL
}

// Resolution is the normalized field text plus what happened to its images.
type Resolution struct {
	Text       string
	RemoteURLs []string
	LocalPaths []string
	Images     []ImageResult
}

// Degradations lists the images that fell back to their remote URL.
func (r Resolution) Degradations() []core.Degradation {
	var out []core.Degradation
	for _, img := range r.Images {
		if !img.Downloaded() {
			out = append(out, core.Degradation{Stage: "image", Target: img.RemoteURL, Err: img.Err})
		}
	}
	return out
}

// Resolver normalizes a rich-text field and materializes its images.
type Resolver struct {
	normalizer core.Normalizer
	extractor  *extract.ImageExtractor
	downloader *Downloader
	l          log.Logger
}

// NewResolver creates a Resolver. A nil downloader disables image handling
// and Resolve only normalizes text.
func NewResolver(normalizer core.Normalizer, downloader *Downloader, l log.Logger) *Resolver {
	if l == nil {
		l = log.NewNop()
	}
	return &Resolver{
		normalizer: normalizer,
		extractor:  extract.New(),
		downloader: downloader,
		l:          l,
	}
}

// Resolve normalizes html and, when downloads are enabled, downloads every
// embedded image in document order. For a normalizer that keeps images
// inline, each reference is pointed at its local copy in place. Otherwise,
// and for any reference the text does not carry, one Markdown image line per
// image is appended under an "Embedded Images" heading. Download failures
// never fail the call; the reference keeps the remote URL instead.
func (r *Resolver) Resolve(ctx context.Context, html string, itemID int) Resolution {
	res := Resolution{Text: r.normalizer.Normalize(html)}
	if r.downloader == nil {
		return res
	}

	urls, err := r.extractor.Images(html)
	if err != nil {
		r.l.Warnf(ctx, "images: work item #%d: scanning rich text: %v", itemID, err)
		return res
	}
	if len(urls) == 0 {
		return res
	}

	inliner, ok := r.normalizer.(core.ImageInliner)
	inline := ok && inliner.InlinesImages()

	text := res.Text
	cursor := 0
	var lines []string
	for _, u := range urls {
		img := ImageResult{RemoteURL: u}
		localPath, err := r.downloader.Download(ctx, u, itemID)
		if err != nil {
			img.Err = err
			img.Filename = Filename(u)
			r.l.Warnf(ctx, "images: work item #%d: falling back to remote URL %s: %v", itemID, u, err)
		} else {
			img.LocalPath = localPath
			img.Filename = filepath.Base(localPath)
			res.LocalPaths = append(res.LocalPaths, localPath)
		}
		res.RemoteURLs = append(res.RemoteURLs, u)
		res.Images = append(res.Images, img)

		if inline {
			if replaced, next, found := rewriteInline(text, cursor, u, img.Target()); found {
				text, cursor = replaced, next
				continue
			}
		}
		lines = append(lines, fmt.Sprintf("![%s](%s)", img.Filename, img.Target()))
	}

	if len(lines) > 0 {
		text += "\n\n" + embeddedHeading + "\n" + strings.Join(lines, "\n")
	}
	res.Text = text
	return res
}

// rewriteInline points the first "](remote)" link target at or after from
// at target. It returns the new text and the offset just past the rewritten
// link; images appear in the converted text in document order.
func rewriteInline(text string, from int, remote, target string) (string, int, bool) {
	old := "](" + remote + ")"
	i := strings.Index(text[from:], old)
	if i < 0 {
		return text, from, false
	}
	i += from
	link := "](" + target + ")"
	return text[:i] + link + text[i+len(old):], i + len(link), true
}
