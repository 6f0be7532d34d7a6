package storage

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		key  string
		want string
	}{
		{
			name: "gcs default",
			cfg:  Config{Bucket: "course-assets"},
			key:  "course-thumbnails/a.png",
			want: "https://storage.googleapis.com/course-assets/course-thumbnails/a.png",
		},
		{
			name: "cdn",
			cfg:  Config{Bucket: "course-assets", CDNDomain: "cdn.example.com"},
			key:  "/course-thumbnails/a.png",
			want: "https://cdn.example.com/course-thumbnails/a.png",
		},
		{
			name: "emulator",
			cfg:  Config{Bucket: "course-assets", EmulatorHost: "http://fake-gcs:4443/"},
			key:  "course-thumbnails/a.png",
			want: "http://fake-gcs:4443/course-assets/course-thumbnails/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublicURL(tt.cfg, tt.key); got != tt.want {
				t.Fatalf("PublicURL: want=%q got=%q", tt.want, got)
			}
		})
	}
}
