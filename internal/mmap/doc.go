// Package mmap maps whole files read-only.
//
// LocalStore serves blobs through it, so a stored bucket table is read from
// the page cache without being copied or decoded.
//
//	m, err := mmap.Open("exports/flop.tbl")
//	if err != nil { ... }
//	defer m.Close()
//	ids := m.Bytes()
//
// Other platforms than Unix read the file into memory instead.
package mmap
