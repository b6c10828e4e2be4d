package notify

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender 通知协作方：(收件人, 主题, 正文)，best-effort 投递
type Sender interface {
	Send(to, subject, body string)
}

type Options struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer 异步 SMTP 投递。失败只记日志，绝不向调用方传播。
type Mailer struct {
	opt Options
	log *zap.Logger
}

func NewMailer(opt Options, log *zap.Logger) *Mailer {
	return &Mailer{opt: opt, log: log}
}

func (m *Mailer) Send(to, subject, body string) {
	if to == "" {
		return
	}
	if !m.opt.Enabled {
		m.log.Debug("mail disabled, dropping", zap.String("to", to), zap.String("subject", subject))
		return
	}
	go func() {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.opt.From)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/plain", body)

		d := gomail.NewDialer(m.opt.Host, m.opt.Port, m.opt.Username, m.opt.Password)
		if err := d.DialAndSend(msg); err != nil {
			m.log.Warn("send mail failed",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}
