package service

import (
	"context"
	"fmt"

	"familyfinance/models"
	"familyfinance/repository"

	"github.com/sirupsen/logrus"
)

// Notifier 告警通知渠道
type Notifier interface {
	Name() string
	Notify(ctx context.Context, family *models.Family, alert *models.SmartAlert) error
}

// AlertService 保存告警并向通知渠道推送高危告警
type AlertService struct {
	repo      repository.Repository
	notifiers []Notifier
	log       logrus.FieldLogger
}

// NewAlertService 创建告警服务
func NewAlertService(repo repository.Repository, log logrus.FieldLogger, notifiers ...Notifier) *AlertService {
	return &AlertService{repo: repo, notifiers: notifiers, log: log}
}

// Raise 保存告警并通知
func (s *AlertService) Raise(ctx context.Context, alert *models.SmartAlert) (*models.SmartAlert, error) {
	saved, err := s.Save(ctx, alert)
	if err != nil {
		return nil, err
	}
	s.Notify(ctx, saved)
	return saved, nil
}

// Save 只保存告警，不通知
func (s *AlertService) Save(ctx context.Context, alert *models.SmartAlert) (*models.SmartAlert, error) {
	saved, err := s.repo.CreateAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	alertsCreated.WithLabelValues(saved.Type, saved.Severity).Inc()
	return saved, nil
}

// Notify 高危告警尽力推送到各通知渠道，失败只记录日志。
// 通知可能很慢，调用方不要持有预算锁。
func (s *AlertService) Notify(ctx context.Context, alert *models.SmartAlert) {
	if alert == nil || alert.Severity != models.SeverityHigh || len(s.notifiers) == 0 {
		return
	}
	entry := s.log.WithFields(logrus.Fields{"alert_id": alert.ID, "family_id": alert.FamilyID})

	family, err := s.repo.GetFamily(ctx, alert.FamilyID)
	if err != nil {
		entry.WithError(err).Warn("告警通知：查询家庭失败")
		family = nil
	}
	for _, n := range s.notifiers {
		err := n.Notify(ctx, family, alert)
		notificationsSent.WithLabelValues(n.Name(), outcome(err)).Inc()
		if err != nil {
			entry.WithError(err).WithField("sink", n.Name()).Warn("告警通知失败")
		}
	}
}
