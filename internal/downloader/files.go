package downloader

import (
	"path"
	"strings"
)

// FileKind classifies a file inside a torrent.
type FileKind int

const (
	FileOther FileKind = iota
	FileMedia
	FileSubtitle
)

var fileKinds = map[string]FileKind{
	".mp4": FileMedia,
	".mkv": FileMedia,
	".ass": FileSubtitle,
	".srt": FileSubtitle,
}

// ClassifyFile reports the kind of a torrent file by its extension.
func ClassifyFile(name string) FileKind {
	return fileKinds[strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/")))]
}

// SplitFiles separates media and subtitle files, keeping listing order.
// Other files are ignored.
func SplitFiles(files []string) (media, subtitles []string) {
	for _, file := range files {
		switch ClassifyFile(file) {
		case FileMedia:
			media = append(media, file)
		case FileSubtitle:
			subtitles = append(subtitles, file)
		}
	}
	return media, subtitles
}
