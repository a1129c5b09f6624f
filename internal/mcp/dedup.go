package mcp

// Dedup collapses case-insensitive name collisions into one record per
// folded name.
//
// Precedence: the record from the highest tier wins; on equal tiers the
// later record in input order wins (covers duplicate names within one
// source file, where later entries shadow earlier ones). The winner
// supplies both the payload and the display casing.
//
// The result keeps the stable first-appearance order of each folded name.
// Dedup never mutates its input and is idempotent.
func Dedup(servers []*Server) []*Server {
	result := make([]*Server, 0, len(servers))
	index := make(map[string]int, len(servers))

	for _, s := range servers {
		folded := Fold(s.Name)
		at, seen := index[folded]
		if !seen {
			index[folded] = len(result)
			result = append(result, s)
			continue
		}
		if s.Tier >= result[at].Tier {
			result[at] = s
		}
	}

	return result
}
