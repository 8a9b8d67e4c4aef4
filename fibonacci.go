package magsci

// fibonacciEncode returns the Zeckendorf codeword for v, terminated with an
// extra "1" bit so the codeword always ends "11". v is biased by +1 before
// decomposition so that zero has a valid representation.
func fibonacciEncode(v uint64) []bool {
	n := v + 1

	hi := 0
	for hi < len(FibonacciSequence) && FibonacciSequence[hi] <= n {
		hi++
	}
	hi--

	bits := make([]bool, hi+1)
	for i := hi; i >= 0; i-- {
		if FibonacciSequence[i] <= n {
			bits[i] = true
			n -= FibonacciSequence[i]
		}
	}
	return append(bits, true)
}

// fibonacciDecode sums the Fibonacci numbers selected by bits (as produced by
// BitCursor.ScanFibonacciTerminator, i.e. without the terminator) and removes
// the encode-time +1 bias.
func fibonacciDecode(bits []bool) uint64 {
	var sum uint64
	for i, set := range bits {
		if set {
			sum += FibonacciSequence[i]
		}
	}
	if sum == 0 {
		return 0
	}
	return sum - 1
}
