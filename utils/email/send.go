package email

import (
	"gopkg.in/gomail.v2"

	"autograph-ds-builder/utils"
)

func newMessage(to, subject, htmlContent string) *gomail.Message {
	msg := gomail.NewMessage()

	msg.SetHeader("From", globalConfig.SMTP.UserName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/html", htmlContent)
	return msg
}

func SendHtml(to string, subject string, htmlContent string) error {
	dialer := gomail.NewDialer(
		globalConfig.SMTP.Host,
		globalConfig.SMTP.Port,
		globalConfig.SMTP.UserName,
		globalConfig.SMTP.Password)

	if err := dialer.DialAndSend(newMessage(to, subject, htmlContent)); err != nil {
		return utils.WrapErrorf(err, "send email to [%s] fail", to)
	}

	return nil
}
