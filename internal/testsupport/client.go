package testsupport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
)

var _ downloader.Client = (*FakeClient)(nil)

// Rename records one RenameFile call.
type Rename struct {
	Hash    string
	OldPath string
	NewPath string
}

// AddedTorrent records one AddTorrent call.
type AddedTorrent struct {
	URL     string
	Options downloader.AddOptions
}

// FakeClient is an in-memory download client. Torrents and their files are
// seeded with Seed; every mutating call is recorded.
type FakeClient struct {
	mu sync.Mutex

	torrents []downloader.Torrent
	files    map[string][]string

	// RenameErrors fails RenameFile for the listed old paths.
	RenameErrors map[string]error
	LoginErr     error

	Logins     int
	Logouts    int
	Renames    []Rename
	Deleted    []string
	Categories map[string]string
	Tags       map[string][]string
	Added      []AddedTorrent
	Created    []string
}

// NewFakeClient returns an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		files:        make(map[string][]string),
		RenameErrors: make(map[string]error),
		Categories:   make(map[string]string),
		Tags:         make(map[string][]string),
	}
}

// Seed adds a torrent with files.
func (f *FakeClient) Seed(t downloader.Torrent, files ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Category == "" {
		t.Category = "Bangumi"
	}
	f.torrents = append(f.torrents, t)
	f.files[t.Hash] = append([]string(nil), files...)
	f.Categories[t.Hash] = t.Category
}

// Files returns the current file list of a torrent.
func (f *FakeClient) Files(hash string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.files[hash]...)
}

func (f *FakeClient) Login(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Logins++
	return f.LoginErr
}

func (f *FakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Logouts++
	return nil
}

func (f *FakeClient) ListTorrents(_ context.Context, opts downloader.ListOptions) ([]downloader.Torrent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []downloader.Torrent
	for _, t := range f.torrents {
		if slices.Contains(f.Deleted, t.Hash) {
			continue
		}
		if opts.Category != "" && f.Categories[t.Hash] != opts.Category {
			continue
		}
		if len(opts.Hashes) > 0 && !slices.Contains(opts.Hashes, t.Hash) {
			continue
		}
		if opts.Tag != "" && !slices.Contains(f.Tags[t.Hash], opts.Tag) {
			continue
		}
		t.Category = f.Categories[t.Hash]
		t.Tags = strings.Join(f.Tags[t.Hash], ",")
		out = append(out, t)
	}
	return out, nil
}

func (f *FakeClient) ListFiles(_ context.Context, hash string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	files, ok := f.files[hash]
	if !ok {
		return nil, fmt.Errorf("torrent %s not found", hash)
	}
	return append([]string(nil), files...), nil
}

func (f *FakeClient) RenameFile(_ context.Context, hash, oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.RenameErrors[oldPath]; err != nil {
		return err
	}
	files := f.files[hash]
	idx := slices.Index(files, oldPath)
	if idx < 0 {
		return errors.New("file not found: " + oldPath)
	}
	files[idx] = newPath
	f.Renames = append(f.Renames, Rename{Hash: hash, OldPath: oldPath, NewPath: newPath})
	return nil
}

func (f *FakeClient) DeleteTorrents(_ context.Context, hashes []string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, hashes...)
	return nil
}

func (f *FakeClient) SetCategory(_ context.Context, hashes []string, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range hashes {
		f.Categories[h] = category
	}
	return nil
}

func (f *FakeClient) AddTags(_ context.Context, hashes []string, tags ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range hashes {
		for _, tag := range tags {
			if !slices.Contains(f.Tags[h], tag) {
				f.Tags[h] = append(f.Tags[h], tag)
			}
		}
	}
	return nil
}

func (f *FakeClient) RemoveTags(_ context.Context, hashes []string, tags ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range hashes {
		f.Tags[h] = slices.DeleteFunc(f.Tags[h], func(tag string) bool {
			return slices.Contains(tags, tag)
		})
	}
	return nil
}

func (f *FakeClient) AddTorrent(_ context.Context, url string, opts downloader.AddOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Added = append(f.Added, AddedTorrent{URL: url, Options: opts})
	return nil
}

func (f *FakeClient) EnsureCategory(_ context.Context, name, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.Created, name) {
		f.Created = append(f.Created, name)
	}
	return nil
}

func (f *FakeClient) Version(context.Context) (string, error) {
	return "v4.6.7", nil
}
