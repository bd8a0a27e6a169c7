package generator

import "fmt"

const lcgMod = 1 << 31

// lcg is the deterministic pseudo-random stream behind historical series.
// Every random draw during generation comes from one stream in a fixed call
// order, so identical (symbol, year) inputs replay byte-identical output.
type lcg struct {
	state int64
}

// seedFor derives the stream seed from the sum of character codes of
// "{symbol}-{year}".
func seedFor(symbol string, year int) int64 {
	var sum int64
	for _, ch := range fmt.Sprintf("%s-%d", symbol, year) {
		sum += int64(ch)
	}
	return sum
}

func newLCG(symbol string, year int) *lcg {
	return &lcg{state: seedFor(symbol, year)}
}

// Float64 advances the stream and returns a value in [0, 1).
func (l *lcg) Float64() float64 {
	l.state = (l.state*1103515245 + 12345) % lcgMod
	return float64(l.state) / float64(lcgMod-1)
}
