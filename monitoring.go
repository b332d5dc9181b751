package recintern

type MapStats struct {
	Records int
	Blocks  int

	SlotsAllocated int

	Packs uint64
	Hits  uint64
}

// Misses returns the number of packs that created a new record.
func (ms MapStats) Misses() uint64 {
	return ms.Packs - ms.Hits
}

func (ms *MapStats) add(other MapStats) {
	ms.Records += other.Records
	ms.Blocks += other.Blocks
	ms.SlotsAllocated += other.SlotsAllocated
	ms.Packs += other.Packs
	ms.Hits += other.Hits
}

type RegistryStats struct {
	Maps int
	MapStats
}

func (r *Registry) Stats() RegistryStats {
	maps := r.Maps()
	result := RegistryStats{Maps: len(maps)}
	for _, m := range maps {
		result.add(m.Stats())
	}
	return result
}
