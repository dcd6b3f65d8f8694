// Package imagemeta derives provenance metadata from image paths.
//
// The scraper lays images out as .../<root>/<scraped_date>/<channel>/<file>
// with filenames ending in _<message_id>.<ext>. Everything the pipeline knows
// about an image's origin comes from that convention.
package imagemeta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/objectscan/objectscan-go/internal/errors"
)

// ErrUnattributable marks an image whose path or filename does not follow the
// scraper convention. Such an image can never be attributed to a message, so
// retrying it is pointless: the orchestrator still marks it processed.
var ErrUnattributable = errors.NewStd("image path is not attributable")

// Metadata is the provenance derived from an image path.
type Metadata struct {
	ScrapedDate string // partition date directory, e.g. "2024-01-01"
	ChannelName string // parent directory name
	MessageID   int64  // trailing _<digits> of the filename
}

// filenamePattern matches the scraper filename convention, extension
// case-insensitive, e.g. "CheMed123_12345_photo.jpg" or "chan_555.PNG".
var filenamePattern = regexp.MustCompile(`(?i)^.*_(\d+)\.(jpg|jpeg|png|gif|bmp)$`)

// imageExtensions are the file types considered sweep candidates.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
}

// HasImageExtension reports whether name has a recognized image extension,
// case-insensitive.
func HasImageExtension(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FromPath extracts metadata from an image path. The rootSegment is the
// directory name expected four segments up from the file, guarding against
// images that sit at the wrong depth in the tree. All failures wrap
// ErrUnattributable.
func FromPath(path, rootSegment string) (Metadata, error) {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) < 4 || parts[len(parts)-4] != rootSegment {
		return Metadata{}, errors.New(ErrUnattributable).
			Component("imagemeta").
			Category(errors.CategoryMetadata).
			Context("path", path).
			Context("reason", "unexpected path layout").
			Build()
	}

	scrapedDate := parts[len(parts)-3]
	channelName := parts[len(parts)-2]
	filename := parts[len(parts)-1]

	m := filenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return Metadata{}, errors.New(ErrUnattributable).
			Component("imagemeta").
			Category(errors.CategoryMetadata).
			Context("path", path).
			Context("reason", "filename missing message id").
			Build()
	}

	messageID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Digits too long to fit an int64, treat the same as a missing id.
		return Metadata{}, errors.New(ErrUnattributable).
			Component("imagemeta").
			Category(errors.CategoryMetadata).
			Context("path", path).
			Context("reason", "message id out of range").
			Build()
	}

	return Metadata{
		ScrapedDate: scrapedDate,
		ChannelName: channelName,
		MessageID:   messageID,
	}, nil
}
