package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mukamba/internal/config"
	"mukamba/internal/database"
	"mukamba/internal/domain/lead"
	"mukamba/internal/logger"
)

type demoLead struct {
	name, email, phone string
	status             lead.Status
	priority           lead.Priority
	score, probability int
	budgetMin          int64
	budgetMax          int64
	location, property string
	source             string
	lastContactDays    int
	stageDays          int
	followUpHours      int // 0 means none; negative is overdue
	phoneOK, emailOK   bool
	kyc                lead.KYCStatus
	tags               []string
}

var demo = []demoLead{
	{"Tendai Moyo", "tendai.moyo@example.com", "+263 77 123 4567", lead.StatusNew, lead.PriorityHigh, 82, 70, 80000, 120000, "Borrowdale, Harare", "house", "website", 1, 1, 24, true, true, lead.KYCVerified, []string{"first-time-buyer"}},
	{"Rudo Chikore", "rudo.chikore@example.com", "+263 71 555 0192", lead.StatusContacted, lead.PriorityMedium, 64, 45, 40000, 65000, "Hillside, Bulawayo", "apartment", "referral", 3, 5, -6, true, false, lead.KYCPending, []string{"diaspora"}},
	{"Farai Ncube", "farai.ncube@example.com", "+263 78 909 1122", lead.StatusViewing, lead.PriorityHigh, 91, 80, 150000, 220000, "Avondale, Harare", "house", "walk-in", 2, 4, 48, true, true, lead.KYCVerified, []string{"cash", "vip"}},
	{"Nyasha Dube", "nyasha.dube@example.com", "+263 77 300 4411", lead.StatusQualified, lead.PriorityMedium, 75, 65, 25000, 40000, "Murambi, Mutare", "land", "facebook", 10, 12, -30, false, true, lead.KYCPending, []string{"rent-to-buy"}},
	{"Kudzai Mhlanga", "kudzai.m@example.com", "+263 73 222 8080", lead.StatusClosed, lead.PriorityLow, 95, 100, 60000, 90000, "Greendale, Harare", "townhouse", "website", 20, 30, 0, true, true, lead.KYCVerified, nil},
	{"Tafadzwa Sibanda", "tafadzwa.s@example.com", "+263 77 818 2020", lead.StatusLost, lead.PriorityLow, 20, 5, 15000, 30000, "Gweru", "land", "newspaper", 45, 40, 0, false, false, lead.KYCRejected, []string{"budget-mismatch"}},
	{"Chipo Marufu", "chipo.marufu@example.com", "+263 71 404 5050", lead.StatusNew, lead.PriorityMedium, 40, 30, 35000, 50000, "Mabelreign, Harare", "apartment", "instagram", 0, 0, 72, true, false, lead.KYCPending, nil},
	{"Blessing Zhou", "blessing.zhou@example.com", "+263 78 616 7070", lead.StatusContacted, lead.PriorityHigh, 70, 55, 100000, 180000, "Victoria Falls", "lodge", "referral", 6, 8, -2, true, true, lead.KYCVerified, []string{"investor"}},
}

func main() {
	log := logger.New(logger.DefaultConfig())
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := database.Connect(cfg.DatabaseURL, log, logger.GormLevel("error"))
	if err != nil {
		log.Fatal("db connection failed", zap.Error(err))
	}

	log.Info("running migrations")
	if err := database.Migrate(db, &lead.Lead{}); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	log.Info("cleaning old leads")
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&lead.Lead{}).Error; err != nil {
		log.Fatal("cleanup failed", zap.Error(err))
	}

	repo := lead.NewRepository(db)
	now := time.Now().UTC()
	ctx := context.Background()

	for i, d := range demo {
		l := d.toLead(now, i)
		if err := repo.Create(ctx, &l); err != nil {
			log.Fatal("create lead failed", zap.String("name", d.name), zap.Error(err))
		}
	}
	log.Info("seed completed", zap.Int("leads", len(demo)))
}

func (d demoLead) toLead(now time.Time, i int) lead.Lead {
	day := 24 * time.Hour
	l := lead.Lead{
		Name:                  d.name,
		Email:                 d.email,
		Phone:                 d.phone,
		Status:                d.status,
		Priority:              d.priority,
		LeadScore:             d.score,
		ConversionProbability: d.probability,
		ResponseRate:          (d.score + d.probability) / 2,
		Budget: lead.Budget{
			Min:      decimal.NewFromInt(d.budgetMin),
			Max:      decimal.NewFromInt(d.budgetMax),
			Currency: "USD",
		},
		Location:        d.location,
		PropertyType:    d.property,
		Source:          d.source,
		LastContact:     now.Add(-time.Duration(d.lastContactDays) * day),
		StageEnteredAt:  now.Add(-time.Duration(d.stageDays) * day),
		IsPhoneVerified: d.phoneOK,
		IsEmailVerified: d.emailOK,
		KYCStatus:       d.kyc,
		Tags:            d.tags,
		// spread creation so list order is stable
		CreatedAt: now.Add(-time.Duration(d.stageDays+7)*day - time.Duration(i)*time.Minute),
	}
	if d.followUpHours != 0 {
		at := now.Add(time.Duration(d.followUpHours) * time.Hour)
		l.NextFollowUp = &at
	}
	l.Normalize(now)
	return l
}
