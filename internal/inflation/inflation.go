// Package inflation converts nominal historical prices into current-dollar
// terms via consumer price index ratio scaling.
package inflation

import (
	"math"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/models"
)

// BaseYear is the "current dollar" reference year for adjustments.
const BaseYear = 2024

// cpi maps year to consumer price index. The table is compiled in and
// strictly increasing over time.
var cpi = map[int]float64{
	1920: 16.0, 1921: 16.2, 1922: 16.4, 1923: 16.6, 1924: 16.8,
	1925: 17.0, 1926: 17.2, 1927: 17.4, 1928: 17.6, 1929: 17.8,
	1930: 18.0, 1931: 18.2, 1932: 18.4, 1933: 18.6, 1934: 18.8,
	1935: 19.0, 1936: 19.2, 1937: 19.4, 1938: 19.6, 1939: 19.8,
	1940: 20.0, 1941: 20.5, 1942: 21.0, 1943: 21.5, 1944: 22.0,
	1945: 22.5, 1946: 23.0, 1947: 23.5, 1948: 24.0, 1949: 24.5,
	1950: 25.0, 1951: 25.4, 1952: 25.9, 1953: 26.3, 1954: 26.7,
	1955: 27.2, 1956: 27.6, 1957: 28.0, 1958: 28.5, 1959: 28.9,
	1960: 29.3, 1961: 29.8, 1962: 30.2, 1963: 30.6, 1964: 31.1,
	1965: 31.5, 1966: 33.5, 1967: 35.6, 1968: 37.6, 1969: 39.7,
	1970: 41.8, 1971: 43.8, 1972: 45.9, 1973: 47.9, 1974: 50.0,
	1975: 52.0, 1976: 58.1, 1977: 64.3, 1978: 70.4, 1979: 76.6,
	1980: 82.7, 1981: 88.9, 1982: 95.0, 1983: 99.1, 1984: 103.2,
	1985: 107.4, 1986: 111.5, 1987: 115.6, 1988: 119.8, 1989: 123.9,
	1990: 128.0, 1991: 132.2, 1992: 136.4, 1993: 140.6, 1994: 144.8,
	1995: 149.0, 1996: 153.2, 1997: 157.4, 1998: 161.6, 1999: 165.8,
	2000: 170.0, 2001: 174.8, 2002: 179.6, 2003: 184.4, 2004: 189.2,
	2005: 194.0, 2006: 198.8, 2007: 203.6, 2008: 208.4, 2009: 213.2,
	2010: 218.0, 2011: 222.0, 2012: 226.0, 2013: 230.0, 2014: 234.0,
	2015: 238.0, 2016: 242.0, 2017: 246.0, 2018: 250.0, 2019: 254.0,
	2020: 258.0, 2021: 271.1, 2022: 284.1, 2023: 297.2, 2024: 310.3,
	2025: 317.0,
}

// Index returns the CPI value for a year. Years outside the table fall back
// to the closest tabulated year by absolute distance; the warning is the
// caller's to log via IndexWithLogger.
func Index(year int) float64 {
	v, _ := indexLookup(year)
	return v
}

// IndexWithLogger is Index with a warning logged on closest-year fallback.
func IndexWithLogger(year int, logger zerolog.Logger) float64 {
	v, exact := indexLookup(year)
	if !exact {
		logger.Warn().
			Int("year", year).
			Float64("cpi", v).
			Msg("Year outside CPI table, using closest tabulated year")
	}
	return v
}

func indexLookup(year int) (float64, bool) {
	if v, ok := cpi[year]; ok {
		return v, true
	}
	// Closest tabulated year by absolute distance. Never an arbitrary
	// default multiplier.
	best, bestDist := 0, math.MaxInt
	for y := range cpi {
		dist := year - y
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist || (dist == bestDist && y < best) {
			best, bestDist = y, dist
		}
	}
	return cpi[best], false
}

// Adjust converts a nominal price from the given year into BaseYear dollars.
func Adjust(price float64, year int) float64 {
	return price * Index(BaseYear) / Index(year)
}

// AdjustWithLogger is Adjust with closest-year fallback warnings.
func AdjustWithLogger(price float64, year int, logger zerolog.Logger) float64 {
	return price * Index(BaseYear) / IndexWithLogger(year, logger)
}

// AdjustCandle scales every OHLC field of a candle uniformly. Volume is
// untouched.
func AdjustCandle(c models.Candle, year int) models.Candle {
	ratio := Index(BaseYear) / Index(year)
	c.Open *= ratio
	c.High *= ratio
	c.Low *= ratio
	c.Close *= ratio
	return c
}
