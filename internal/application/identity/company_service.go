package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// downloadURLTTL is how long presigned file links stay valid
const downloadURLTTL = 15 * time.Minute

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// CompanyService manages the company profile, logo, settings and file uploads
type CompanyService struct {
	companyRepo  identity.CompanyRepository
	settingsRepo identity.SettingsRepository
	storage      appshared.ObjectStorage
	images       appshared.ImageProcessor
	maxUpload    int64
	logger       *zap.Logger
}

// CompanyServiceDeps groups the collaborators of CompanyService
type CompanyServiceDeps struct {
	CompanyRepo  identity.CompanyRepository
	SettingsRepo identity.SettingsRepository
	Storage      appshared.ObjectStorage
	// Images resizes logos; configure it for 512x512
	Images        appshared.ImageProcessor
	MaxUploadSize int64
	Logger        *zap.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(deps CompanyServiceDeps) *CompanyService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{
		companyRepo:  deps.CompanyRepo,
		settingsRepo: deps.SettingsRepo,
		storage:      deps.Storage,
		images:       deps.Images,
		maxUpload:    deps.MaxUploadSize,
		logger:       logger,
	}
}

// GetCompany returns the caller's company
func (s *CompanyService) GetCompany(ctx context.Context, companyID uuid.UUID) (*CompanyResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := ToCompanyResponse(company)
	return &resp, nil
}

// UpdateCompany updates the company profile
func (s *CompanyService) UpdateCompany(ctx context.Context, companyID uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := company.UpdateProfile(req.Name, req.Email, req.Phone, req.Address, req.TaxNumber); err != nil {
		return nil, err
	}
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return nil, err
	}
	resp := ToCompanyResponse(company)
	return &resp, nil
}

// UploadLogo resizes the image, stores it and replaces the previous logo
func (s *CompanyService) UploadLogo(ctx context.Context, companyID uuid.UUID, data []byte) (*CompanyResponse, error) {
	if err := appshared.CheckUploadSize(data, s.maxUpload); err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	processed, err := s.images.Process(data)
	if err != nil {
		if errors.Is(err, appshared.ErrUnsupportedImage) || errors.Is(err, appshared.ErrImageTooLarge) {
			return nil, err
		}
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image could not be decoded")
	}

	key := fmt.Sprintf("companies/%s/logo-%s.png", companyID, uuid.New())
	url, err := s.storage.Upload(ctx, key, processed, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	previous := company.SetLogo(key, url)
	if err := s.companyRepo.Save(ctx, company); err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	if previous != "" {
		s.deleteObject(ctx, previous)
	}

	resp := ToCompanyResponse(company)
	return &resp, nil
}

// GetSettings returns the company settings, falling back to the defaults
func (s *CompanyService) GetSettings(ctx context.Context, companyID uuid.UUID) (*SettingsResponse, error) {
	settings, err := s.findSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := ToSettingsResponse(settings)
	return &resp, nil
}

// UpdateSettings applies a partial settings update
func (s *CompanyService) UpdateSettings(ctx context.Context, companyID uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	settings, err := s.findSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := settings.Apply(identity.SettingsUpdate{
		Currency:           req.Currency,
		InvoicePrefix:      req.InvoicePrefix,
		OrderPrefix:        req.OrderPrefix,
		DefaultTaxRate:     req.DefaultTaxRate,
		LowStockThreshold:  req.LowStockThreshold,
		Timezone:           req.Timezone,
		DailyReportEnabled: req.DailyReportEnabled,
	}); err != nil {
		return nil, err
	}
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	resp := ToSettingsResponse(settings)
	return &resp, nil
}

func (s *CompanyService) findSettings(ctx context.Context, companyID uuid.UUID) (*identity.CompanySettings, error) {
	settings, err := s.settingsRepo.FindByCompany(ctx, companyID)
	if err != nil {
		if shared.IsNotFound(err) {
			return identity.NewCompanySettings(companyID), nil
		}
		return nil, err
	}
	return settings, nil
}

// UploadFile stores an arbitrary file and returns a presigned download link
func (s *CompanyService) UploadFile(ctx context.Context, companyID uuid.UUID, filename string, data []byte) (*FileUploadResponse, error) {
	if err := appshared.CheckUploadSize(data, s.maxUpload); err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)
	key := fmt.Sprintf("companies/%s/files/%s-%s", companyID, uuid.New(), sanitizeFilename(filename))
	if _, err := s.storage.Upload(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download url: %w", err)
	}

	s.logger.Info("File uploaded",
		zap.String("company_id", companyID.String()),
		zap.String("key", key),
		zap.Int("size", len(data)))
	return &FileUploadResponse{
		Key:         key,
		URL:         url,
		ExpiresAt:   expiresAt,
		Size:        len(data),
		ContentType: contentType,
	}, nil
}

func (s *CompanyService) deleteObject(ctx context.Context, key string) {
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete stored object", zap.String("key", key), zap.Error(err))
	}
}

func sanitizeFilename(name string) string {
	name = unsafeFileChars.ReplaceAllString(path.Base(strings.ReplaceAll(name, `\`, "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}
