package media

import (
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		localPath string
		wantExt   string
	}{
		{
			name:      "Jpeg file",
			localPath: "/tmp/uploads/avatar-123.jpg",
			wantExt:   ".jpg",
		},
		{
			name:      "Uppercase extension normalized",
			localPath: "/tmp/uploads/COVER.PNG",
			wantExt:   ".png",
		},
		{
			name:      "No extension",
			localPath: "/tmp/uploads/blob",
			wantExt:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey(tt.localPath)

			if !strings.HasPrefix(key, "media/") {
				t.Errorf("expected media/ prefix, got %q", key)
			}
			if !strings.HasSuffix(key, tt.wantExt) {
				t.Errorf("expected suffix %q, got %q", tt.wantExt, key)
			}
		})
	}
}

func TestObjectKeyUnique(t *testing.T) {
	a := objectKey("/tmp/a.jpg")
	b := objectKey("/tmp/a.jpg")
	if a == b {
		t.Errorf("two keys for the same path should differ, both were %q", a)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name      string
		localPath string
		want      string
	}{
		{
			name:      "Png",
			localPath: "cover.png",
			want:      "image/png",
		},
		{
			name:      "Unknown extension falls back",
			localPath: "file.zzz9",
			want:      "application/octet-stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentTypeFor(tt.localPath); got != tt.want {
				t.Errorf("contentTypeFor(%q) = %q, want %q", tt.localPath, got, tt.want)
			}
		})
	}
}
