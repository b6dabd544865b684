package ports

// SourceFile is one file matched by a task's source patterns.
type SourceFile struct {
	// Path is the absolute path of the file.
	Path string
	// Rel is the path relative to the static base of the pattern that matched it.
	Rel string
}

// InputResolver defines the interface for resolving source patterns.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// Resolve expands patterns relative to root. Files are returned grouped by
	// pattern in declaration order, sorted within a pattern, without duplicates.
	// A literal pattern naming a missing file is an error; a glob matching
	// nothing is not.
	Resolve(root string, patterns []string) ([]SourceFile, error)
}
