// Package mmap maps snapshot files read-only into memory.
//
//	m, err := mmap.Open("pass-0001.hmap")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// The slice returned by Bytes is valid until Close.
package mmap
