package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound means no company matched the lookup.
var ErrNotFound = errors.New("company not found")

// Company is the persisted record of an onboarded company. CompanyURL is the
// identity key: onboarding is deduplicated on it. The nullable fields are
// write-once-if-null, filled in as pipeline stages complete.
type Company struct {
	ID                 uint    `gorm:"primaryKey"`
	CompanyName        string  `gorm:"size:100"`
	CompanyURL         string  `gorm:"size:512;uniqueIndex"`
	WebSiteRawData     *string `gorm:"type:longtext"`
	WebSiteSummaryData *string `gorm:"type:longtext"`
	AssistantID        *string `gorm:"size:64;uniqueIndex"`
	AssistantURL       *string `gorm:"size:512"`
}

// CompanyRepository is the persistence boundary for company records.
type CompanyRepository interface {
	Insert(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id uint) (*Company, error)
	GetByURL(ctx context.Context, companyURL string) (*Company, error)
}

// GormRepository implements CompanyRepository over a SQL database.
type GormRepository struct {
	db *gorm.DB
}

// Open connects to the database and migrates the company table.
func Open(dsn string) (*GormRepository, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate company table: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Insert(ctx context.Context, company *Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		return fmt.Errorf("failed to insert company %q: %w", company.CompanyName, err)
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, company *Company) error {
	if err := r.db.WithContext(ctx).Save(company).Error; err != nil {
		return fmt.Errorf("failed to update company %d: %w", company.ID, err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uint) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load company %d: %w", id, err)
	}
	return &company, nil
}

func (r *GormRepository) GetByURL(ctx context.Context, companyURL string) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).Where("company_url = ?", companyURL).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load company by URL %q: %w", companyURL, err)
	}
	return &company, nil
}
