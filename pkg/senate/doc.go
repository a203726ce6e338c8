// Package senate scrapes the Wikipedia list of current U.S. senators and
// resolves each senator's official website.
//
// The roster page is parsed sequentially into ordered entries by a
// RosterParser. Website lookups then run on a bounded pool of 10 workers,
// one secondary page per senator, and are merged back by roster index so
// the output order always equals the roster order. A failed lookup leaves
// that senator's website empty and never affects the others.
//
// Both page-specific steps sit behind interfaces (RosterParser,
// WebsiteResolver) so they can be fixture-tested or swapped when the
// markup changes.
package senate
