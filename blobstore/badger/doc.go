// Package badger provides a blobstore.Store backed by BadgerDB.
//
// Each blob is stored as a single key/value pair. Puts are transactional,
// so readers never observe a partially written blob.
//
//	store, err := badgerblob.Open(badgerblob.Options{Dir: "/var/lib/abstraction"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use InMemory for tests that want a real engine without touching disk.
package badger
