package services

import (
	"fmt"
)

// SlotCatalog is the fixed list of one-hour slots offered each day,
// from openHour inclusive to closeHour exclusive.
type SlotCatalog struct {
	slots []string
	index map[string]int
}

func NewSlotCatalog(openHour, closeHour int) (*SlotCatalog, error) {
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return nil, fmt.Errorf("invalid operating window %d-%d: need 0 <= open < close <= 24", openHour, closeHour)
	}
	c := &SlotCatalog{index: make(map[string]int, closeHour-openHour)}
	for h := openHour; h < closeHour; h++ {
		label := fmt.Sprintf("%02d:00-%02d:00", h, h+1)
		c.index[label] = len(c.slots)
		c.slots = append(c.slots, label)
	}
	return c, nil
}

// Slots returns a copy of the catalog in chronological order.
func (c *SlotCatalog) Slots() []string {
	out := make([]string, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *SlotCatalog) Contains(slot string) bool {
	_, ok := c.index[slot]
	return ok
}

// Free returns catalog slots not present in occupied, keeping catalog order.
func (c *SlotCatalog) Free(occupied []string) []string {
	taken := make(map[string]struct{}, len(occupied))
	for _, s := range occupied {
		taken[s] = struct{}{}
	}
	free := make([]string, 0, len(c.slots))
	for _, s := range c.slots {
		if _, ok := taken[s]; !ok {
			free = append(free, s)
		}
	}
	return free
}

// values is used with validation.In.
func (c *SlotCatalog) values() []interface{} {
	out := make([]interface{}, len(c.slots))
	for i, s := range c.slots {
		out[i] = s
	}
	return out
}
