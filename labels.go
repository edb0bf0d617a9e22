package main

import "strconv"

// labelGenerator hands out branch targets for one compilation unit.
type labelGenerator struct {
	next int
}

// pair returns two fresh labels sharing one sequence number, e.g. IF_ELSE3 and IF_END3.
func (g *labelGenerator) pair(prefix, first, second string) (string, string) {
	n := strconv.Itoa(g.next)
	g.next++
	return prefix + "_" + first + n, prefix + "_" + second + n
}
