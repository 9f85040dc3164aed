package superchunk

// shuffleBytes reorders data so that the nth byte of every element is
// grouped together: [all byte0][all byte1]... This improves compression of
// typed numeric arrays. The data length must be a multiple of elemSize.
func shuffleBytes(data []byte, elemSize int) []byte {
	if elemSize <= 1 || len(data)%elemSize != 0 {
		return data
	}
	numElems := len(data) / elemSize
	out := make([]byte, len(data))
	for e := 0; e < numElems; e++ {
		for b := 0; b < elemSize; b++ {
			out[b*numElems+e] = data[e*elemSize+b]
		}
	}
	return out
}

// unshuffleBytes reverses shuffleBytes, interleaving grouped bytes back
// into whole elements.
func unshuffleBytes(data []byte, elemSize int) []byte {
	if elemSize <= 1 || len(data)%elemSize != 0 {
		return data
	}
	numElems := len(data) / elemSize
	out := make([]byte, len(data))
	for e := 0; e < numElems; e++ {
		for b := 0; b < elemSize; b++ {
			out[e*elemSize+b] = data[b*numElems+e]
		}
	}
	return out
}
