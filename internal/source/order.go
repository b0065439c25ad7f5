package source

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"
)

// Order controls the sequence in which a multi-picture source cycles.
type Order int

const (
	OrderRandom Order = iota
	OrderName
	OrderDate
)

func (o Order) String() string {
	switch o {
	case OrderName:
		return "name"
	case OrderDate:
		return "date"
	}
	return "random"
}

// ParseOrder reads an order name; anything unknown is random.
func ParseOrder(s string) Order {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return OrderName
	case "date":
		return OrderDate
	}
	return OrderRandom
}

type entry struct {
	path        string
	orientation int
	taken       time.Time
}

// cycle hands out entries in order, reshuffling each lap for OrderRandom.
type cycle struct {
	order   Order
	entries []entry
	pos     int
	last    string
	shuffle func(n int, swap func(i, j int))
}

func newCycle(order Order) *cycle {
	return &cycle{order: order, shuffle: rand.Shuffle}
}

// reset installs a new entry list and starts from offset.
func (c *cycle) reset(entries []entry, offset int) {
	switch c.order {
	case OrderName:
		sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	case OrderDate:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].taken.Before(entries[j].taken) })
	default:
		c.shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
		if len(entries) > 1 && entries[0].path == c.last {
			entries[0], entries[1] = entries[1], entries[0]
		}
	}
	c.entries = entries
	c.pos = 0
	if len(entries) > 0 && c.order != OrderRandom {
		c.pos = offset % len(entries)
	}
}

// next returns the following entry, avoiding an immediate repeat when more
// than one entry exists.
func (c *cycle) next() (entry, bool) {
	if len(c.entries) == 0 {
		return entry{}, false
	}
	if c.pos >= len(c.entries) {
		c.pos = 0
		if c.order == OrderRandom {
			c.shuffle(len(c.entries), func(i, j int) { c.entries[i], c.entries[j] = c.entries[j], c.entries[i] })
			if len(c.entries) > 1 && c.entries[0].path == c.last {
				c.entries[0], c.entries[1] = c.entries[1], c.entries[0]
			}
		}
	}
	e := c.entries[c.pos]
	c.pos++
	c.last = e.path
	return e, true
}
