package types

// ImageRecord is one entry of a registry snapshot. At least one of Tag and
// Digest is set.
type ImageRecord struct {
	Tag    string `yaml:"tag,omitempty"`
	Digest string `yaml:"digest,omitempty"`
}

func (r ImageRecord) Tagged() bool {
	return r.Tag != ""
}
