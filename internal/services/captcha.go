package services

import (
	"bytes"
	"fmt"

	"github.com/mojocn/base64Captcha"
)

// CaptchaGenerator produces a random challenge text and its rendered image.
type CaptchaGenerator interface {
	Generate() (text string, image []byte, contentType string, err error)
}

// DigitCaptcha renders 4-digit PNG captchas.
type DigitCaptcha struct {
	driver *base64Captcha.DriverDigit
}

func NewDigitCaptcha() *DigitCaptcha {
	return &DigitCaptcha{
		driver: base64Captcha.NewDriverDigit(80, 240, 4, 0.7, 80),
	}
}

func (c *DigitCaptcha) Generate() (string, []byte, string, error) {
	_, content, answer := c.driver.GenerateIdQuestionAnswer()

	item, err := c.driver.DrawCaptcha(content)
	if err != nil {
		return "", nil, "", fmt.Errorf("draw captcha: %w", err)
	}

	var buf bytes.Buffer
	if _, err := item.WriteTo(&buf); err != nil {
		return "", nil, "", fmt.Errorf("encode captcha: %w", err)
	}
	return answer, buf.Bytes(), "image/png", nil
}
