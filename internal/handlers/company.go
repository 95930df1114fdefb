package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
	"supportdesk/internal/repositories"
)

// CompanyHandler manages WhatsApp company configuration endpoints.
type CompanyHandler struct {
	companies repositories.CompanyRepository
	client    backend.Client
}

// NewCompanyHandler builds a CompanyHandler.
func NewCompanyHandler(companies repositories.CompanyRepository, client backend.Client) *CompanyHandler {
	return &CompanyHandler{companies: companies, client: client}
}

// ListCompanies returns all configured companies.
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load companies"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

type companyRequest struct {
	Name           string `json:"name" binding:"required"`
	WhatsAppNumber string `json:"whatsapp_number" binding:"required"`
	WhatsAppToken  string `json:"whatsapp_token"`
	LogoURL        string `json:"logo_url"`
}

// CreateCompany registers a company and its WhatsApp credentials.
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.companies.Create(c.Request.Context(), models.Company{
		Name:           req.Name,
		WhatsAppNumber: req.WhatsAppNumber,
		WhatsAppToken:  req.WhatsAppToken,
		LogoURL:        req.LogoURL,
	})
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "company already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create company"})
		return
	}
	c.JSON(http.StatusCreated, company)
}

// UpdateCompany updates a company's settings.
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.companies.Update(c.Request.Context(), c.Param("company_id"), models.Company{
		Name:           req.Name,
		WhatsAppNumber: req.WhatsAppNumber,
		WhatsAppToken:  req.WhatsAppToken,
		LogoURL:        req.LogoURL,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCompanyNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update company"})
		return
	}
	c.JSON(http.StatusOK, company)
}

// DeleteCompany removes a company.
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	if err := h.companies.Delete(c.Request.Context(), c.Param("company_id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCompanyNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete company"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckCompany probes the backend with the company's configuration so the
// dashboard can show whether the integration is reachable.
func (h *CompanyHandler) CheckCompany(c *gin.Context) {
	company, err := h.companies.Get(c.Request.Context(), c.Param("company_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCompanyNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "company not found"})
		return
	}

	if _, err := h.client.SelectRows(c.Request.Context(), backend.TableProfiles, nil, "", true, 1); err != nil {
		c.JSON(http.StatusOK, gin.H{"company_id": company.ID, "status": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"company_id": company.ID, "status": "ok"})
}
