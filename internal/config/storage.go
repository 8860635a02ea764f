package config

type Storage struct {
	File   *FileStorage    `mapstructure:"file,omitempty"`
	SQLite *SQLLiteStorage `mapstructure:"sqlite,omitempty"`
}

// FileStorage keeps the tenant table and request ledger as plain files
// under Dir. This is the default backend.
type FileStorage struct {
	Dir string `mapstructure:"dir,omitempty"`
}

type SQLLiteStorage struct {
	Path string `mapstructure:"path,omitempty"`
}
