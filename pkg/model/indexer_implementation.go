package model

type indexerImplementation struct {
	domains []int
}

func (indexer *indexerImplementation) Index(attributes ...int) int {
	index, stride := 0, 1
	for i, attribute := range attributes {
		index += attribute * stride
		stride *= indexer.domains[i]
	}
	return index
}

func (indexer *indexerImplementation) Attributes(index int) []int {
	attributes := make([]int, len(indexer.domains))
	for i, domain := range indexer.domains {
		attributes[i] = index % domain
		index = index / domain
	}
	return attributes
}

func (indexer *indexerImplementation) Size() int {
	size := 1
	for _, domain := range indexer.domains {
		size *= domain
	}
	return size
}
