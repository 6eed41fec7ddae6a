package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"investcore/internal/models"
)

// GormStore implements Store on top of a gorm postgres connection.
type GormStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGormStore(db *gorm.DB, log *logrus.Logger) *GormStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GormStore{
		db:  db,
		log: log,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreatePlan(ctx context.Context, plan *models.InvestmentPlan) error {
	return s.db.WithContext(ctx).Create(plan).Error
}

func (s *GormStore) GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &plan, nil
}

func (s *GormStore) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	query := s.db.WithContext(ctx).Model(&models.InvestmentPlan{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var plans []models.InvestmentPlan
	err := query.Order("id ASC").Find(&plans).Error
	return plans, err
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) CreateInvestment(ctx context.Context, inv *models.UserInvestment) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error
}

func (s *GormStore) GetInvestment(ctx context.Context, id uint) (*models.UserInvestment, error) {
	var inv models.UserInvestment
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("InvestmentPlan").
		First(&inv, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *GormStore) ListInvestments(ctx context.Context, filter InvestmentFilter) ([]models.UserInvestment, error) {
	query := s.db.WithContext(ctx).Model(&models.UserInvestment{}).
		Preload("User").
		Preload("InvestmentPlan")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var investments []models.UserInvestment
	err := query.Order("id DESC").Find(&investments).Error
	return investments, err
}

func (s *GormStore) ListActiveInvestmentIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.UserInvestment{}).
		Where("status = ?", models.StatusActive).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) ListEntries(ctx context.Context, filter EntryFilter) ([]models.DailyProfitEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.DailyProfitEntry{})
	if filter.InvestmentID != 0 {
		query = query.Where("investment_id = ?", filter.InvestmentID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.DailyProfitEntry
	err := query.Order("date ASC, id ASC").Find(&entries).Error
	return entries, err
}

func (s *GormStore) SumPaidProfits(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyProfitPoint, error) {
	var points []models.DailyProfitPoint
	err := s.db.WithContext(ctx).Model(&models.DailyProfitEntry{}).
		Select("date, SUM(profit_amount) AS total_profit").
		Where("user_id = ? AND status = ? AND date BETWEEN ? AND ?", userID, models.EntryPaid, from, to).
		Group("date").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

func (s *GormStore) RecordFailedEntry(ctx context.Context, entry *models.DailyProfitEntry) error {
	entry.Status = models.EntryFailed
	if entry.Attempts < 1 {
		entry.Attempts = 1
	}
	s.log.WithFields(logrus.Fields{
		"investment_id": entry.InvestmentID,
		"date":          entry.Date.Format(models.DateLayout),
	}).Debug("recording failed ledger entry")
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "investment_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":         models.EntryFailed,
			"failure_reason": entry.FailureReason,
			"attempts":       gorm.Expr("daily_profit_entries.attempts + 1"),
			"updated_at":     time.Now(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "daily_profit_entries", Name: "status"}, Value: models.EntryPaid},
		}},
	}).Create(entry).Error
}

func (s *GormStore) ListAudits(ctx context.Context, investmentID uint) ([]models.InvestmentAudit, error) {
	var audits []models.InvestmentAudit
	err := s.db.WithContext(ctx).Where("investment_id = ?", investmentID).Order("id ASC").Find(&audits).Error
	return audits, err
}

func (s *GormStore) ListEvents(ctx context.Context, investmentID uint) ([]models.InvestmentEvent, error) {
	var events []models.InvestmentEvent
	err := s.db.WithContext(ctx).Where("investment_id = ?", investmentID).Order("id ASC").Find(&events).Error
	return events, err
}

func (s *GormStore) CreateSystemLog(ctx context.Context, entry *models.SystemLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) ListSystemLogs(ctx context.Context, filter SystemLogFilter) ([]models.SystemLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.SystemLog{})
	if filter.InvestmentID != 0 {
		query = query.Where("investment_id = ?", filter.InvestmentID)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var logs []models.SystemLog
	err := query.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error
	return logs, total, err
}

func (s *GormStore) WithInvestment(ctx context.Context, id uint, fn func(tx InvestmentTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.UserInvestment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
			return notFound(err)
		}
		var plan models.InvestmentPlan
		if err := tx.First(&plan, inv.PlanID).Error; err != nil {
			return notFound(err)
		}
		inv.InvestmentPlan = &plan

		return fn(&gormTx{db: tx, inv: &inv})
	})
}

type gormTx struct {
	db  *gorm.DB
	inv *models.UserInvestment
}

func (t *gormTx) Investment() *models.UserInvestment {
	return t.inv
}

func (t *gormTx) Save(ctx context.Context) error {
	t.inv.Version++
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(t.inv).Error
}

func (t *gormTx) Delete(ctx context.Context) error {
	return t.db.WithContext(ctx).Delete(&models.UserInvestment{}, t.inv.ID).Error
}

func (t *gormTx) GetEntry(ctx context.Context, date time.Time) (*models.DailyProfitEntry, error) {
	var entry models.DailyProfitEntry
	err := t.db.WithContext(ctx).
		Where("investment_id = ? AND date = ?", t.inv.ID, date).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (t *gormTx) InsertEntry(ctx context.Context, entry *models.DailyProfitEntry) (bool, error) {
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "investment_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *gormTx) SaveEntry(ctx context.Context, entry *models.DailyProfitEntry) error {
	return t.db.WithContext(ctx).Save(entry).Error
}

func (t *gormTx) AddAudit(ctx context.Context, audit *models.InvestmentAudit) error {
	return t.db.WithContext(ctx).Create(audit).Error
}

func (t *gormTx) AddEvent(ctx context.Context, event *models.InvestmentEvent) error {
	return t.db.WithContext(ctx).Create(event).Error
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
