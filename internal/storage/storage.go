package storage

// FileStore persists uploaded media and serves it back by URL. Save
// returns the stored path, which is what the database keeps; URL turns a
// stored path into something a client can fetch.
type FileStore interface {
	Save(username, filename string, data []byte) (string, error)
	Delete(path string) error
	URL(path string) string
}
