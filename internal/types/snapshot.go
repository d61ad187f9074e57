package types

// RegistrySnapshotFile is the on-disk form of an offline registry: image
// records keyed by repository name.
type RegistrySnapshotFile struct {
	Repositories map[string][]ImageRecord `yaml:"repositories"`
}
