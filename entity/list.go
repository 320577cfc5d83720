// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package entity

const (
	chunkSize = 512
	maxChunks = 64

	chunkShift  = 9
	offsetMask  = chunkSize - 1
	maxEntities = chunkSize * maxChunks
)

// list is a sparse entity table addressed by wire index. Indices cluster
// low, so storage is chunked and chunks are released when they empty.
type list struct {
	chunks [maxChunks]*chunk
}

type chunk struct {
	count int
	slots [chunkSize]*Entity
}

func (l *list) get(idx int32) *Entity {
	if idx < 0 || idx >= maxEntities {
		return nil
	}
	c := l.chunks[idx>>chunkShift]
	if c == nil {
		return nil
	}
	return c.slots[idx&offsetMask]
}

// insert places e at idx, returning the entity it displaced, if any.
func (l *list) insert(idx int32, e *Entity) *Entity {
	if idx < 0 || idx >= maxEntities {
		return nil
	}

	c := l.chunks[idx>>chunkShift]
	if c == nil {
		c = &chunk{}
		l.chunks[idx>>chunkShift] = c
	}

	old := c.slots[idx&offsetMask]
	if old == nil {
		c.count++
	}
	c.slots[idx&offsetMask] = e
	return old
}

// remove deletes and returns the entity at idx.
func (l *list) remove(idx int32) *Entity {
	if idx < 0 || idx >= maxEntities {
		return nil
	}

	c := l.chunks[idx>>chunkShift]
	if c == nil {
		return nil
	}

	e := c.slots[idx&offsetMask]
	if e == nil {
		return nil
	}

	c.slots[idx&offsetMask] = nil
	c.count--
	if c.count == 0 {
		l.chunks[idx>>chunkShift] = nil
	}
	return e
}

// each visits every stored entity in index order.
func (l *list) each(fn func(*Entity)) {
	for _, c := range l.chunks {
		if c == nil {
			continue
		}
		for _, e := range c.slots {
			if e != nil {
				fn(e)
			}
		}
	}
}
