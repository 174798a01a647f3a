package domain

import (
	"fmt"
	"strings"
)

// DefaultThumbPrefix is prepended to the source basename to form the
// destination object name.
const DefaultThumbPrefix = "thumbs/"

// ObjectRef identifies an object in a storage bucket.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// Valid reports whether both bucket and name are set.
func (r ObjectRef) Valid() bool {
	return r.Bucket != "" && r.Name != ""
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("gs://%s/%s", r.Bucket, r.Name)
}

// Basename returns the final path segment of an object name.
func Basename(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ThumbnailName derives the destination object name: the source name with
// its path stripped, behind prefix.
func ThumbnailName(prefix, sourceName string) string {
	return prefix + Basename(sourceName)
}

// ThumbnailResult describes a completed thumbnail upload.
type ThumbnailResult struct {
	Source    ObjectRef `json:"source"`
	Thumbnail ObjectRef `json:"thumbnail"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int       `json:"size"`
}

// ThumbnailCreatedEvent is published after a thumbnail has been uploaded.
type ThumbnailCreatedEvent struct {
	Source    ObjectRef `json:"source"`
	Thumbnail ObjectRef `json:"thumbnail"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp int64     `json:"timestamp"`
}
