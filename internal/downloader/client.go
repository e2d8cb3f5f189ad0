package downloader

import (
	"context"
	"errors"
)

// ErrSessionActive is returned by Guard.Do while another pass holds the session.
var ErrSessionActive = errors.New("download client session already active")

// Status filters used by ListOptions.
const (
	StatusCompleted = "completed"
	StatusAll       = "all"
)

// Torrent is the subset of client state the system reads.
type Torrent struct {
	Hash     string
	Name     string
	SavePath string
	Category string
	Tags     string
	State    string
}

// ListOptions narrows ListTorrents. Empty fields do not filter.
type ListOptions struct {
	Category string
	Status   string
	Tag      string
	Hashes   []string
}

// AddOptions describes where a new torrent lands.
type AddOptions struct {
	SavePath string
	Category string
	Tags     []string
}

// Client is the download client collaborator.
type Client interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ListTorrents(ctx context.Context, opts ListOptions) ([]Torrent, error)
	// ListFiles returns file paths relative to the torrent's save path.
	ListFiles(ctx context.Context, hash string) ([]string, error)
	RenameFile(ctx context.Context, hash, oldPath, newPath string) error
	DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error
	SetCategory(ctx context.Context, hashes []string, category string) error
	AddTags(ctx context.Context, hashes []string, tags ...string) error
	RemoveTags(ctx context.Context, hashes []string, tags ...string) error
	AddTorrent(ctx context.Context, url string, opts AddOptions) error
	// EnsureCategory creates the category when it does not exist yet.
	EnsureCategory(ctx context.Context, name, savePath string) error
	Version(ctx context.Context) (string, error)
}
