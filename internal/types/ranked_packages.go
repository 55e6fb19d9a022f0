package types

// RankedPackages represents a popularity-ranked set of packages
type RankedPackages struct {
	Ranked []RankedPackage `json:"ranked"`
	// Packages repeats the ranking as corpus entries with popularity filled in
	Packages []CorpusEntry `json:"packages,omitempty"`
}

// RankedPackage represents a single package joined against star and metadata tables
type RankedPackage struct {
	Rank        int    `json:"rank"`
	CanonicalID string `json:"canonical_id"`
	Version     string `json:"version"`
	Stars       int    `json:"stars"`
	// Findings is the number of records for the package (0 when ranked without records)
	Findings int `json:"findings,omitempty"`
}

// VersionedID returns "canonical_id-version", the identifier emitted in ranked reports.
func (p RankedPackage) VersionedID() string {
	if p.Version == "" {
		return p.CanonicalID
	}
	return p.CanonicalID + "-" + p.Version
}

// Entry converts the ranked package into a CorpusEntry with its popularity filled in.
func (p RankedPackage) Entry() CorpusEntry {
	stars := p.Stars
	return CorpusEntry{Name: p.CanonicalID, Version: p.Version, Popularity: &stars}
}
