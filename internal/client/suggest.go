package client

import (
	"strings"
)

// Suggest returns up to limit clients whose name matches query, for bill-to
// autofill. Prefix matches come before substring matches; within each group
// directory order is kept. An empty query returns the first limit clients.
func (s *Service) Suggest(query string, limit int) []Client {
	if limit <= 0 {
		return nil
	}

	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var prefix, contains []Client

	for _, c := range s.clients {
		name := strings.ToLower(c.FullName)

		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, c)
		case strings.Contains(name, q):
			contains = append(contains, c)
		}
	}

	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}

	return out
}
