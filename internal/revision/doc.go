// Package revision prunes superseded re-releases.
//
// FilterLatest works on one feed probe's candidates, keyed by the reduced
// release parse ("title+episode"). ResolveStale works on torrents already in
// the download client, keyed by the series identity recovered from their
// save path plus the parsed episode. In both, a group keeps every member at
// its maximum revision.
package revision
