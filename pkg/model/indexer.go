package model

// indexer gives a unique dense index to a combination of variable attributes and vice versa
type indexer interface {
	// Returns a unique index in [0, Size()) for attributes given least significant first
	Index(attributes ...int) int
	// Returns the attributes, least significant first, of an index
	Attributes(index int) []int
	Size() int
}

func newIndexer(domains ...int) indexer {
	return &indexerImplementation{domains: domains}
}
