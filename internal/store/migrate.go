package store

// migration upgrades a document from version from to from+1.
type migration struct {
	from  int
	apply func(*Schema)
}

// migrations run in order; each one applies only to documents at its
// starting version.
var migrations = []migration{
	// Documents written before versioning carried the v1 layout.
	{from: 0, apply: func(*Schema) {}},
	// v2 added fileWorkspaces, hourlyDistribution and nightOwlTimeMs. The
	// arrays decode as zero; only the map needs allocating.
	{from: 1, apply: func(s *Schema) {
		for _, a := range s.DailyAggregates {
			if a != nil && a.FileWorkspaces == nil {
				a.FileWorkspaces = make(map[string]string)
			}
		}
	}},
}

// migrate upgrades s in place to CurrentVersion and reports whether the
// version changed. It always normalizes nil maps.
func migrate(s *Schema) bool {
	start := s.Version
	for _, m := range migrations {
		if s.Version == m.from {
			m.apply(s)
			s.Version = m.from + 1
		}
	}
	if s.DailyAggregates == nil {
		s.DailyAggregates = make(map[string]*DailyAggregate)
	}
	for date, a := range s.DailyAggregates {
		if a == nil {
			delete(s.DailyAggregates, date)
			continue
		}
		a.normalize()
	}
	return s.Version != start
}
