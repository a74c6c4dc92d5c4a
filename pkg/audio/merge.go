// ABOUTME: Channel merger and interleaver
// ABOUTME: Flattens captured blocks and interleaves stereo channels for encoding
package audio

import "fmt"

// MergeBlocks concatenates blocks in order into one buffer of exactly
// total samples. total must equal the sum of the block lengths.
func MergeBlocks(blocks [][]float32, total int) []float32 {
	result := make([]float32, total)
	offset := 0
	for _, block := range blocks {
		if offset+len(block) > total {
			panic(fmt.Sprintf("audio: merge overflow: blocks exceed %d samples", total))
		}
		offset += copy(result[offset:], block)
	}
	if offset != total {
		panic(fmt.Sprintf("audio: merge underflow: blocks hold %d samples, want %d", offset, total))
	}
	return result
}

// Interleave reorders two channels into L,R,L,R,... order.
// Both channels must have the same length.
func Interleave(left, right []float32) []float32 {
	if len(left) != len(right) {
		panic(fmt.Sprintf("audio: interleave length mismatch: left=%d right=%d", len(left), len(right)))
	}
	result := make([]float32, 2*len(left))
	for i := range left {
		result[2*i] = left[i]
		result[2*i+1] = right[i]
	}
	return result
}
