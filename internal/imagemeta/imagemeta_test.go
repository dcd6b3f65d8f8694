package imagemeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectscan/objectscan-go/internal/errors"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		root     string
		want     Metadata
		wantErr  bool
	}{
		{
			name: "conventional path",
			path: "data/raw/telegram_images/2024-01-01/chan1/chan1_555_photo.jpg",
			root: "telegram_images",
			want: Metadata{ScrapedDate: "2024-01-01", ChannelName: "chan1", MessageID: 555},
		},
		{
			name: "message id directly before extension",
			path: "data/raw/telegram_images/2024-03-15/CheMed123/CheMed123_12345.png",
			root: "telegram_images",
			want: Metadata{ScrapedDate: "2024-03-15", ChannelName: "CheMed123", MessageID: 12345},
		},
		{
			name: "uppercase extension",
			path: "data/raw/telegram_images/2024-01-01/chan1/chan1_7.JPG",
			root: "telegram_images",
			want: Metadata{ScrapedDate: "2024-01-01", ChannelName: "chan1", MessageID: 7},
		},
		{
			name: "bmp extension",
			path: "data/raw/telegram_images/2024-01-01/chan1/chan1_42_doc.bmp",
			root: "telegram_images",
			want: Metadata{ScrapedDate: "2024-01-01", ChannelName: "chan1", MessageID: 42},
		},
		{
			name:    "filename without message id",
			path:    "data/raw/telegram_images/2024-01-01/chan1/foo.jpg",
			root:    "telegram_images",
			wantErr: true,
		},
		{
			name:    "non numeric id",
			path:    "data/raw/telegram_images/2024-01-01/chan1/chan1_abc.jpg",
			root:    "telegram_images",
			wantErr: true,
		},
		{
			name:    "wrong root segment",
			path:    "data/raw/other_images/2024-01-01/chan1/chan1_555.jpg",
			root:    "telegram_images",
			wantErr: true,
		},
		{
			name:    "root segment at wrong depth",
			path:    "telegram_images/chan1/chan1_555.jpg",
			root:    "telegram_images",
			wantErr: true,
		},
		{
			name:    "unsupported extension",
			path:    "data/raw/telegram_images/2024-01-01/chan1/chan1_555.webp",
			root:    "telegram_images",
			wantErr: true,
		},
		{
			name:    "message id overflows int64",
			path:    "data/raw/telegram_images/2024-01-01/chan1/chan1_99999999999999999999999.jpg",
			root:    "telegram_images",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromPath(tt.path, tt.root)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnattributable)
				assert.True(t, errors.HasCategory(err, errors.CategoryMetadata))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasImageExtension(t *testing.T) {
	tests := []struct {
		name string
		file string
		want bool
	}{
		{"jpg", "chan1_555.jpg", true},
		{"jpeg", "chan1_555.jpeg", true},
		{"png", "chan1_555.png", true},
		{"gif", "chan1_555.gif", true},
		{"bmp", "chan1_555.bmp", true},
		{"uppercase", "chan1_555.PNG", true},
		{"mixed case", "chan1_555.JpEg", true},
		{"webp not supported", "chan1_555.webp", false},
		{"text file", "notes.txt", false},
		{"no extension", "chan1_555", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasImageExtension(tt.file))
		})
	}
}
