package senate

// Senator is one row of the final roster.
type Senator struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Party string `json:"party"`
	// Website is empty when no infobox link was found or the lookup failed.
	Website string `json:"website"`
	Notes   string `json:"notes,omitempty"`
}

// Entry is a parsed roster row before website resolution.
type Entry struct {
	Senator
	// WikiPath is the senator's article path, e.g. /wiki/Katie_Britt.
	// Empty when the name cell carries no link.
	WikiPath string
}
