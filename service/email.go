package service

import (
	"context"
	"fmt"
	"html"

	"familyfinance/config"
	"familyfinance/models"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务，向家庭通知邮箱发送高危告警
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

// Name 通知渠道名
func (s *EmailService) Name() string {
	return "email"
}

// Notify 家庭未配置通知邮箱时跳过
func (s *EmailService) Notify(_ context.Context, family *models.Family, alert *models.SmartAlert) error {
	if family == nil || family.NotifyEmail == "" {
		return nil
	}
	return s.SendAlertEmail(family.NotifyEmail, family.Name, alert)
}

// SendAlertEmail 发送告警邮件
func (s *EmailService) SendAlertEmail(toEmail, familyName string, alert *models.SmartAlert) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 FAMILYFINANCE_EMAIL_ENABLED=true")
	}

	subject := fmt.Sprintf("[Family Finance] %s", alert.Title)
	body := s.generateAlertEmailBody(familyName, alert)

	return s.sendEmail(toEmail, subject, body)
}

// generateAlertEmailBody 生成告警邮件内容
func (s *EmailService) generateAlertEmailBody(familyName string, alert *models.SmartAlert) string {
	color := "#f59e0b"
	if alert.Severity == models.SeverityHigh {
		color = "#ef4444"
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: %s; color: white; padding: 24px 30px; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { padding: 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 16px; }
        .footer { background: #f8f9fa; padding: 16px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>%s</h1>
        </div>
        <div class="content">
            <p>Hello <strong>%s</strong>,</p>
            <p>%s</p>
            <p>Severity: <strong>%s</strong></p>
        </div>
        <div class="footer">
            <p>This message was sent automatically. Please do not reply.</p>
        </div>
    </div>
</body>
</html>
`, color, html.EscapeString(alert.Title), html.EscapeString(familyName), html.EscapeString(alert.Message), alert.Severity)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
