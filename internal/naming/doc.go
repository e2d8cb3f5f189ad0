// Package naming turns parsed descriptors into library file names.
//
// A Policy selects the shape of the composed name (keep, plain title, or the
// canonical series title, with subtitle variants carrying a language tag).
// The package also owns the save directory convention "<title> S<NN>" that
// the rename pass reads back to recover a torrent's series and season.
package naming
