package config

// StorageConfig defines configuration for snapshot and change-history storage
type StorageConfig struct {
	SnapshotDBPath   string `json:"snapshot_db_path,omitempty" yaml:"snapshot_db_path,omitempty" validate:"required"`
	ArchiveDir       string `json:"archive_dir" yaml:"archive_dir"` // empty disables the change archive
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,compression"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SnapshotDBPath:   DefaultStorageSnapshotDBPath,
		ArchiveDir:       DefaultStorageArchiveDir,
		CompressionCodec: DefaultStorageCompressionCodec,
	}
}
