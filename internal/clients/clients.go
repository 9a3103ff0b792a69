// Package clients provides customer lookup-or-create keyed by a normalized
// CPF/CNPJ document number.
package clients

import (
	"errors"
	"strings"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// NormalizeDocument strips everything but digits from a CPF/CNPJ.
func NormalizeDocument(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindOrCreate returns the client matching the document, creating it if
// absent. Existing records are reused as-is: identity fields are
// first-write-wins and never overwritten by later intakes.
func FindOrCreate(db *gorm.DB, name, email, phone, document string) (*models.Client, error) {
	doc := NormalizeDocument(document)

	if doc != "" {
		var existing models.Client
		err := db.Where("document = ?", doc).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if name == "" {
		return nil, apperr.Validation("clients: name is required")
	}

	client := models.Client{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Document: doc,
	}
	if err := db.Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}
