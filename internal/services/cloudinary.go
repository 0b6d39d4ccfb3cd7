package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/internal/patch"
)

const receiptFolder = "brift/receipts"

// Uploader stores a file and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, file io.Reader, folder string) (string, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

func (s *CloudinaryService) UploadFile(ctx context.Context, file io.Reader, folder string) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	return uploadResult.SecureURL, nil
}

// ReceiptService attaches uploaded receipts to expenses.
type ReceiptService struct {
	uploader Uploader
	entities *EntityService
}

// NewReceiptService returns a service that reports ErrUnavailable when uploader is nil.
func NewReceiptService(uploader Uploader, entities *EntityService) *ReceiptService {
	return &ReceiptService{uploader: uploader, entities: entities}
}

// Enabled reports whether an uploader is configured.
func (s *ReceiptService) Enabled() bool {
	return s != nil && s.uploader != nil
}

// Attach uploads the file and writes its URL to the expense's receipt_url.
func (s *ReceiptService) Attach(ctx context.Context, userID, expenseID string, fh *multipart.FileHeader) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("receipt uploads: %w", ErrUnavailable)
	}
	if _, err := s.entities.Fetch(ctx, models.Expenses, userID, expenseID); err != nil {
		return "", err
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	url, err := s.uploader.UploadFile(ctx, file, receiptFolder+"/"+userID)
	if err != nil {
		return "", &DependencyError{Op: "upload receipt", Err: err}
	}
	if err := s.entities.Update(ctx, models.Expenses, userID, expenseID,
		models.ExpensePatch{ReceiptURL: patch.Some(url)}); err != nil {
		return "", err
	}
	return url, nil
}
