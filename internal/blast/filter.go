package blast

// Identity is the fraction of the alignment's columns that are identical.
func (h Hit) Identity() float64 {
	if h.AlignLen < 1 {
		return 0
	}
	return float64(h.Identities) / float64(h.AlignLen)
}

// Filter removes hits with an identity below minIdentity and hits that
// repeat an earlier hit's accession. Report order is kept, so the first
// (best scoring) hit of each subject is the one that remains.
//
// A minIdentity of zero returns hits unchanged.
func Filter(hits []Hit, minIdentity float64) []Hit {
	if minIdentity <= 0 {
		return hits
	}

	seen := make(map[string]bool, len(hits))

	var kept []Hit
	for _, h := range hits {
		if h.Accession != "" {
			if seen[h.Accession] {
				continue
			}
			seen[h.Accession] = true
		}

		if h.Identity() < minIdentity {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}
