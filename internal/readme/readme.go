// Package readme checks which generated badges a README embeds.
package readme

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Image is an image reference found in a README.
type Image struct {
	AltText     string
	Destination string
}

// Reference reports whether a badge artifact is embedded in the README.
type Reference struct {
	Artifact string
	Found    bool
	Images   []Image
}

var htmlImageRegex = regexp.MustCompile(`<img\s+[^>]*?src="([^"]+)"[^>]*?>`)
var htmlAltRegex = regexp.MustCompile(`alt="([^"]*)"`)

// ExtractImages returns every image in a Markdown document, including
// inline HTML <img> tags.
func ExtractImages(content []byte) []Image {
	var images []Image

	md := goldmark.New()
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			images = append(images, Image{
				AltText:     string(img.Text(content)),
				Destination: string(img.Destination),
			})
		}
		return ast.WalkContinue, nil
	})

	for _, match := range htmlImageRegex.FindAllSubmatch(content, -1) {
		img := Image{Destination: string(match[1])}
		if alt := htmlAltRegex.FindSubmatch(match[0]); alt != nil {
			img.AltText = string(alt[1])
		}
		images = append(images, img)
	}

	return images
}

// Check matches the images of a README against the artifact paths.
// An image matches when its path ends with the artifact path, ignoring any
// query string or fragment.
func Check(content []byte, artifacts []string) []Reference {
	images := ExtractImages(content)

	refs := make([]Reference, 0, len(artifacts))
	for _, artifact := range artifacts {
		ref := Reference{Artifact: artifact}
		want := path.Clean("/" + strings.TrimPrefix(filepath.ToSlash(artifact), "./"))
		for _, img := range images {
			if strings.HasSuffix(imagePath(img.Destination), want) {
				ref.Found = true
				ref.Images = append(ref.Images, img)
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

// CheckFile reads the README at path and checks it.
func CheckFile(readmePath string, artifacts []string) ([]Reference, error) {
	content, err := os.ReadFile(readmePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", readmePath, err)
	}
	return Check(content, artifacts), nil
}

func imagePath(dest string) string {
	if u, err := url.Parse(dest); err == nil {
		dest = u.Path
	}
	return path.Clean("/" + strings.TrimPrefix(dest, "./"))
}
