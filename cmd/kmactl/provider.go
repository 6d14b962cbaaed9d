package main

import (
	"fmt"

	"github.com/joshuapare/kmakit/alloc"
	"github.com/joshuapare/kmakit/page"
)

// pageSource is a provider the CLI can report on and close.
type pageSource interface {
	page.Provider
	Stats() page.Stats
	Close() error
}

// allocFlags are the allocator settings shared by commands.
type allocFlags struct {
	pageSize int
	granule  int
	provider string
	maxPages int
	strict   bool
}

func (f allocFlags) open() (pageSource, *alloc.BuddyAllocator, error) {
	opts := &page.Options{MaxPages: f.maxPages}

	var src pageSource
	var err error
	switch f.provider {
	case "heap":
		src, err = page.NewHeap(f.pageSize, opts)
	case "mmap":
		src, err = page.NewMmap(f.pageSize, opts)
	default:
		return nil, nil, fmt.Errorf("unknown provider %q (want heap or mmap)", f.provider)
	}
	if err != nil {
		return nil, nil, err
	}

	ba, err := alloc.NewBuddy(src, &alloc.Config{Granule: f.granule, Strict: f.strict})
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	return src, ba, nil
}
