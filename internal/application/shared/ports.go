package shared

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Upload errors
var (
	ErrUnsupportedImage = shared.NewDomainError("INVALID_FILE_TYPE", "Only png, jpeg and gif images are accepted")
	ErrFileTooLarge     = shared.NewDomainError("FILE_TOO_LARGE", "File exceeds the maximum upload size")
	ErrEmptyFile        = shared.NewDomainError("EMPTY_FILE", "File is empty")
	ErrImageTooLarge    = shared.NewDomainError("FILE_TOO_LARGE", "Image dimensions are too large")
)

// ObjectStorage stores uploaded files (logos, product images, attachments)
type ObjectStorage interface {
	// Upload stores data under key and returns the object's public URL
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// Attachment is a file attached to an outgoing email
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outgoing email
type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ImageProcessor normalizes uploaded images before they are stored
type ImageProcessor interface {
	// Process validates and resizes an image and returns PNG bytes.
	// Input that is not png, jpeg or gif yields ErrUnsupportedImage.
	// Images whose header declares oversized dimensions yield ErrImageTooLarge.
	Process(data []byte) ([]byte, error)
}

// StockLedger applies stock movements inside a caller's transaction
type StockLedger interface {
	ApplyInTx(ctx context.Context, repos TransactionalRepositories, companyID uuid.UUID, req inventory.MovementRequest) (*inventory.StockMovement, error)
	// NotifyCommitted is called once the surrounding transaction committed
	NotifyCommitted(ctx context.Context, movements ...*inventory.StockMovement)
}

// CheckUploadSize rejects empty uploads and uploads above maxSize (0 = unlimited)
func CheckUploadSize(data []byte, maxSize int64) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return ErrFileTooLarge
	}
	return nil
}
