package repositories

import (
	"context"
	"errors"
	"time"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

var ErrCompanyNotFound = errors.New("company not found")

// CompanyRepository manages WhatsApp integration credentials.
type CompanyRepository interface {
	List(ctx context.Context) ([]models.Company, error)
	Get(ctx context.Context, id string) (models.Company, error)
	GetByNumber(ctx context.Context, whatsappNumber string) (models.Company, error)
	Create(ctx context.Context, company models.Company) (models.Company, error)
	Update(ctx context.Context, id string, company models.Company) (models.Company, error)
	Delete(ctx context.Context, id string) error
}

// CompanyRepo is a backend-client implementation of CompanyRepository.
type CompanyRepo struct {
	client backend.Client
}

// NewCompanyRepo constructs a CompanyRepo.
func NewCompanyRepo(client backend.Client) *CompanyRepo {
	return &CompanyRepo{client: client}
}

// List returns all configured companies.
func (r *CompanyRepo) List(ctx context.Context) ([]models.Company, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableCompanies, nil, "created_at", true, 0)
	if err != nil {
		return nil, err
	}
	companies := make([]models.Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, CompanyFromRow(row))
	}
	return companies, nil
}

// Get fetches one company.
func (r *CompanyRepo) Get(ctx context.Context, id string) (models.Company, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableCompanies, backend.Filter{"id": id}, "", true, 1)
	if err != nil {
		return models.Company{}, err
	}
	if len(rows) == 0 {
		return models.Company{}, ErrCompanyNotFound
	}
	return CompanyFromRow(rows[0]), nil
}

// GetByNumber resolves the company owning an inbound WhatsApp number.
func (r *CompanyRepo) GetByNumber(ctx context.Context, whatsappNumber string) (models.Company, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableCompanies, backend.Filter{"whatsapp_number": whatsappNumber}, "", true, 1)
	if err != nil {
		return models.Company{}, err
	}
	if len(rows) == 0 {
		return models.Company{}, ErrCompanyNotFound
	}
	return CompanyFromRow(rows[0]), nil
}

// Create stores a new company.
func (r *CompanyRepo) Create(ctx context.Context, company models.Company) (models.Company, error) {
	row, err := r.client.InsertRow(ctx, backend.TableCompanies, backend.Row{
		"name":            company.Name,
		"whatsapp_number": company.WhatsAppNumber,
		"whatsapp_token":  company.WhatsAppToken,
		"logo_url":        company.LogoURL,
		"created_at":      time.Now().UTC(),
	})
	if err != nil {
		return models.Company{}, err
	}
	return CompanyFromRow(row), nil
}

// Update patches a company's credentials.
func (r *CompanyRepo) Update(ctx context.Context, id string, company models.Company) (models.Company, error) {
	row, err := r.client.UpdateRow(ctx, backend.TableCompanies, backend.Filter{"id": id}, backend.Row{
		"name":            company.Name,
		"whatsapp_number": company.WhatsAppNumber,
		"whatsapp_token":  company.WhatsAppToken,
		"logo_url":        company.LogoURL,
	})
	if errors.Is(err, backend.ErrNoRows) {
		return models.Company{}, ErrCompanyNotFound
	}
	if err != nil {
		return models.Company{}, err
	}
	return CompanyFromRow(row), nil
}

// Delete removes a company.
func (r *CompanyRepo) Delete(ctx context.Context, id string) error {
	return r.client.DeleteRow(ctx, backend.TableCompanies, backend.Filter{"id": id})
}
