package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Row models. The schema itself lives in migrations/.

type ShopModel struct {
	ID            string `gorm:"primaryKey"`
	Domain        string
	AccessToken   string
	Scopes        pq.StringArray `gorm:"type:text[]"`
	IsActive      bool
	InstalledAt   time.Time
	UninstalledAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ShopModel) TableName() string { return "shops" }

type SectionModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	Slug          string
	Description   string
	Category      string
	Price         decimal.Decimal `gorm:"type:numeric(12,2)"`
	IsFree        bool
	IsPro         bool
	IsPlus        bool
	IsActive      bool
	Content       string
	PurchaseCount int64
	InstallCount  int64
	Rating        float64
	ReviewCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SectionModel) TableName() string { return "sections" }

type BundleModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string
	Slug            string
	Description     string
	RegularPrice    decimal.Decimal `gorm:"type:numeric(12,2)"`
	BundlePrice     decimal.Decimal `gorm:"type:numeric(12,2)"`
	DiscountPercent int
	IsActive        bool
	SectionIDs      pq.StringArray `gorm:"column:section_ids;type:text[]"`
	PurchaseCount   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (BundleModel) TableName() string { return "bundles" }

type PurchaseModel struct {
	ID              string `gorm:"primaryKey"`
	ShopID          string
	ItemType        string
	ItemID          string
	ItemName        string
	Price           decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency        string
	ChargeRef       string
	ConfirmationURL string `gorm:"column:confirmation_url"`
	Status          string
	AttemptToken    string
	AttemptedAt     time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PurchaseModel) TableName() string { return "purchases" }

type InstallationModel struct {
	ID          string `gorm:"primaryKey"`
	ShopID      string
	SectionID   string
	ThemeID     string
	ThemeName   string
	IsActive    bool
	InstalledAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (InstallationModel) TableName() string { return "installations" }

type SubscriptionModel struct {
	ID          string `gorm:"primaryKey"`
	ShopID      string
	PlanName    string
	Price       decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status      string
	StartedAt   time.Time
	EndsAt      *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

type FavoriteModel struct {
	ID        string `gorm:"primaryKey"`
	ShopID    string
	SectionID string
	CreatedAt time.Time
}

func (FavoriteModel) TableName() string { return "favorites" }

type SupportTicketModel struct {
	ID        string `gorm:"primaryKey"`
	ShopID    string
	Subject   string
	Message   string
	Status    string
	CreatedAt time.Time
}

func (SupportTicketModel) TableName() string { return "support_tickets" }

type FeatureRequestModel struct {
	ID          string `gorm:"primaryKey"`
	ShopDomain  string
	Title       string
	Description string
	Votes       int
	CreatedAt   time.Time
}

func (FeatureRequestModel) TableName() string { return "feature_requests" }
