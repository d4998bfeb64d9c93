package csvdata

import (
	"time"

	"gorm.io/datatypes"

	"csvrelay/internal/pkg/csvrows"
)

// FileDescriptor is the metadata of an uploaded file as received by the
// HTTP layer. It never carries the file contents.
type FileDescriptor struct {
	FieldName    string `json:"fieldname"`
	OriginalName string `json:"originalname"`
	Encoding     string `json:"encoding"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// UploadRecord is what gets persisted once an upload has been parsed.
// Records are inserted once and never updated.
type UploadRecord struct {
	ID        string            `gorm:"column:id;primaryKey" json:"id"`
	RequestID string            `gorm:"column:request_id;index;not null" json:"requestId"`
	File      string            `gorm:"column:file;not null" json:"file"` // serialized FileDescriptor
	RowCount  int64             `gorm:"column:row_count" json:"rowCount"`
	Extra     datatypes.JSONMap `gorm:"column:extra" json:"extra,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"createdAt"`
}

func (UploadRecord) TableName() string { return "csv_data" }

// ProgressMessage is pushed to the realtime client for every batch of rows.
type ProgressMessage struct {
	RequestID string        `json:"requestId"`
	Data      []csvrows.Row `json:"data"`
}
