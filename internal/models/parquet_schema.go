package models

// ParquetChangeRecord is the archived form of a ChangeEvent.
type ParquetChangeRecord struct {
	CycleID       string  `parquet:"cycle_id,zstd"`
	TargetID      string  `parquet:"target_id,zstd"`
	TargetName    string  `parquet:"target_name,zstd"`
	TargetURL     string  `parquet:"target_url,zstd"`
	Kind          string  `parquet:"kind,zstd"`
	BeforePreview *string `parquet:"before_preview,zstd,optional"`
	AfterPreview  *string `parquet:"after_preview,zstd,optional"`
	Detail        *string `parquet:"detail,zstd,optional"`
	Error         *string `parquet:"error,zstd,optional"`
	DetectedAt    int64   `parquet:"detected_at_ms"`
}
