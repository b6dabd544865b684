package ports

// Hasher defines the interface for fingerprinting file contents.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// HashFile returns a content fingerprint of the file at path.
	HashFile(path string) (uint64, error)
	// HashBytes returns the fingerprint of data, comparable with HashFile.
	HashBytes(data []byte) uint64
}
