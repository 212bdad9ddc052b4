package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrSlugTaken = errors.New("slug already in use")
)

type Proposal struct {
	ID           string
	Slug         string
	Status       string
	ShowVision   bool
	ShowGoals    bool
	ShowWorkPlan bool
	ShowPricing  bool
	ShowNotes    bool
	ShowNoticed  bool
	ExpiresAt    *time.Time
	DataEn       *string
	DataAr       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ProgressPage struct {
	ID                 string
	Slug               string
	Status             string
	ShowClient         bool
	ShowPlan           bool
	ShowCalendar       bool
	ShowAssets         bool
	ShowPayments       bool
	ShowMetaAds        bool
	AccessPasswordHash *string
	DataEn             *string
	DataAr             *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type MetaPage struct {
	ID                 string
	Slug               string
	Status             string
	ShowClient         bool
	ShowWallet         bool
	ShowResults        bool
	ShowPlan           bool
	AccessPasswordHash *string
	DataEn             *string
	DataAr             *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
