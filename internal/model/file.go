package model

// File stores uploaded binary content (candidate resume PDFs). When cloud
// storage is configured the payload lives in the bucket and StorageObjectName
// points at it; otherwise Content holds the bytes directly.
type File struct {
	ID                int `gorm:"primaryKey"`
	Content           []byte
	Extension         string
	StorageObjectName *string
}
