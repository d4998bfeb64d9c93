package csvdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"csvrelay/internal/domain/realtime"
	"csvrelay/internal/pkg/csvrows"
)

const DefaultBatchSize = 1000

// Channel hands out the realtime client that receives progress for an upload.
type Channel interface {
	Pick(requestID string) (realtime.Sender, bool)
}

// reservedExtraKeys cannot be overridden by free-form form fields.
var reservedExtraKeys = map[string]bool{
	"_id":       true,
	"id":        true,
	"requestId": true,
	"file":      true,
	"rowCount":  true,
	"createdAt": true,
}

type UploadInput struct {
	RequestID  string
	File       io.Reader
	Descriptor FileDescriptor
	Extra      map[string]any
}

type UploadResult struct {
	RequestID string `json:"requestId"`
	RecordID  string `json:"recordId"`
	ClientID  string `json:"clientId"`
	Rows      int64  `json:"rows"`
	Batches   int    `json:"batches"`
}

// Service runs the upload pipeline: parse -> push batches -> persist.
type Service struct {
	repo      Repository
	channel   Channel
	batchSize int
}

func NewService(repo Repository, channel Channel, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{repo: repo, channel: channel, batchSize: batchSize}
}

// HandleUpload streams the rows of in.File to a realtime client in batches
// and stores the file descriptor under in.RequestID once parsing succeeds.
// Pushed batches are not rolled back if parsing or persistence fails later.
// The upload runs to completion even if the caller goes away: cancellation
// of ctx is ignored, its values are kept.
func (s *Service) HandleUpload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	ctx = context.WithoutCancel(ctx)

	if in.RequestID == "" {
		return nil, ErrRequestIDRequired
	}
	if in.File == nil {
		return nil, ErrFileRequired
	}
	if !strings.EqualFold(filepath.Ext(in.Descriptor.OriginalName), ".csv") {
		return nil, ErrNotCSV
	}

	sink, ok := s.channel.Pick(in.RequestID)
	if !ok {
		return nil, ErrNoClientAvailable
	}

	start := time.Now()
	result := &UploadResult{RequestID: in.RequestID, ClientID: sink.ID()}
	log.Printf("csv_upload_started request_id=%s client_id=%s file=%q size=%d", in.RequestID, sink.ID(), in.Descriptor.OriginalName, in.Descriptor.Size)

	reader := csvrows.NewReader(in.File)
	for {
		rows, err := reader.ReadBatch(s.batchSize)
		result.Rows += int64(len(rows))
		if err != nil && err != io.EOF {
			log.Printf("csv_parse_failed request_id=%s line=%d error=%v", in.RequestID, reader.Line(), err)
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		if len(rows) > 0 && sink != nil {
			msg := &ProgressMessage{RequestID: in.RequestID, Data: rows}
			if sendErr := sink.Send(ctx, msg); sendErr != nil {
				// keep parsing so the record is still stored
				log.Printf("csv_push_failed request_id=%s client_id=%s batch=%d error=%v", in.RequestID, sink.ID(), result.Batches+1, sendErr)
				sink = nil
			} else {
				result.Batches++
			}
		}

		if err == io.EOF {
			break
		}
	}

	descriptor, err := json.Marshal(in.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("encode file descriptor: %w", err)
	}

	rec := &UploadRecord{
		ID:        uuid.New().String(),
		RequestID: in.RequestID,
		File:      string(descriptor),
		RowCount:  result.Rows,
		Extra:     filterExtra(in.Extra),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		log.Printf("csv_persist_failed request_id=%s error=%v", in.RequestID, err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	result.RecordID = rec.ID

	log.Printf("csv_upload_completed request_id=%s record_id=%s columns=%d rows=%d batches=%d latency=%s", in.RequestID, rec.ID, len(reader.Headers()), result.Rows, result.Batches, time.Since(start))
	return result, nil
}

// GetByRequestID looks up the record saved for requestID.
func (s *Service) GetByRequestID(ctx context.Context, requestID string) (*UploadRecord, error) {
	rec, err := s.repo.GetByRequestID(ctx, requestID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, nil
}

func filterExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if reservedExtraKeys[k] {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
